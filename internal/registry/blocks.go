package registry

import (
	"fmt"
	"sort"

	"voxelstream/internal/world"
)

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID   world.BlockID
	Name string
	// Oriented blocks record a rotation derived from the face they were
	// placed against.
	Oriented bool
	// Placeable blocks may be selected in the hotbar.
	Placeable bool
}

// Registry maps block ids to their definitions and names back to ids.
type Registry struct {
	blocks map[world.BlockID]*BlockDefinition
	names  map[string]world.BlockID
}

func New() *Registry {
	return &Registry{
		blocks: make(map[world.BlockID]*BlockDefinition),
		names:  make(map[string]world.BlockID),
	}
}

// RegisterBlock adds def. Registering an id or name twice is an error.
func (r *Registry) RegisterBlock(def BlockDefinition) error {
	if !def.ID.Valid() {
		return fmt.Errorf("register %q: invalid block id %d", def.Name, def.ID)
	}
	if _, dup := r.blocks[def.ID]; dup {
		return fmt.Errorf("register %q: id %d already registered", def.Name, def.ID)
	}
	if _, dup := r.names[def.Name]; dup {
		return fmt.Errorf("register %q: name already registered", def.Name)
	}
	d := def
	r.blocks[def.ID] = &d
	r.names[def.Name] = def.ID
	return nil
}

// Get returns the definition of id, or nil.
func (r *Registry) Get(id world.BlockID) *BlockDefinition {
	return r.blocks[id]
}

// ByName resolves a block name such as "oak" or "dark_iron_ore".
func (r *Registry) ByName(name string) (world.BlockID, bool) {
	id, ok := r.names[name]
	return id, ok
}

// Name returns the registered name of id, or "unknown".
func (r *Registry) Name(id world.BlockID) string {
	if d := r.blocks[id]; d != nil {
		return d.Name
	}
	return "unknown"
}

// IsOriented reports whether placing id records a rotation.
func (r *Registry) IsOriented(id world.BlockID) bool {
	d := r.blocks[id]
	return d != nil && d.Oriented
}

// Names returns every registered name in id order.
func (r *Registry) Names() []string {
	ids := make([]int, 0, len(r.blocks))
	for id := range r.blocks {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.blocks[world.BlockID(id)].Name
	}
	return out
}

// Default returns the registry of every built-in material.
func Default() *Registry {
	r := New()
	for _, def := range []BlockDefinition{
		{ID: world.BlockAir, Name: "air"},
		{ID: world.BlockDirt, Name: "dirt", Placeable: true},
		{ID: world.BlockGrass, Name: "grass", Placeable: true},
		{ID: world.BlockCobblestone, Name: "cobblestone", Placeable: true},
		{ID: world.BlockStone, Name: "stone", Placeable: true},
		{ID: world.BlockSand, Name: "sand", Placeable: true},
		{ID: world.BlockWater, Name: "water", Placeable: true},
		{ID: world.BlockTerracota, Name: "terracota", Placeable: true},
		{ID: world.BlockCoalOre, Name: "coal_ore", Placeable: true},
		{ID: world.BlockIronOre, Name: "iron_ore", Placeable: true},
		{ID: world.BlockGoldOre, Name: "gold_ore", Placeable: true},
		{ID: world.BlockDiamondOre, Name: "diamond_ore", Placeable: true},
		{ID: world.BlockDarkStone, Name: "dark_stone", Placeable: true},
		{ID: world.BlockDarkCoalOre, Name: "dark_coal_ore", Placeable: true},
		{ID: world.BlockDarkIronOre, Name: "dark_iron_ore", Placeable: true},
		{ID: world.BlockDarkGoldOre, Name: "dark_gold_ore", Placeable: true},
		{ID: world.BlockDarkDiamondOre, Name: "dark_diamond_ore", Placeable: true},
		{ID: world.BlockOak, Name: "oak", Oriented: true, Placeable: true},
	} {
		if err := r.RegisterBlock(def); err != nil {
			panic(err)
		}
	}
	return r
}
