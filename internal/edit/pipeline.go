// Package edit applies break, place and pick commands from the observer to
// the chunk store and requests the mesh rebuilds they cause.
package edit

import (
	"sync"

	"go.uber.org/zap"

	"voxelstream/internal/physics"
	"voxelstream/internal/registry"
	"voxelstream/internal/world"
)

// Remesher rebuilds the mesh of a chunk after an edit.
type Remesher interface {
	Remesh(coord world.ChunkCoord)
}

// Pipeline owns the selection state and applies edits. It is used from the
// main thread; the mutex only guards the selection for readers such as
// telemetry.
type Pipeline struct {
	store    *world.ChunkStore
	remesher Remesher
	blocks   *registry.Registry
	log      *zap.Logger

	mu         sync.Mutex
	hotbar     Hotbar
	lastStruck world.BlockID
}

func NewPipeline(store *world.ChunkStore, remesher Remesher, blocks *registry.Registry, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if blocks == nil {
		blocks = registry.Default()
	}
	return &Pipeline{
		store:    store,
		remesher: remesher,
		blocks:   blocks,
		log:      log.Named("edit"),
		hotbar:   DefaultHotbar(),
	}
}

// Aim records the result of this frame's raycast.
func (p *Pipeline) Aim(hit physics.Hit) {
	p.mu.Lock()
	if hit.Hit {
		p.lastStruck = hit.ID
	} else {
		p.lastStruck = world.BlockAir
	}
	p.mu.Unlock()
}

// LastStruck returns the id of the block under the crosshair, air if none.
func (p *Pipeline) LastStruck() world.BlockID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStruck
}

// Selected returns the material used by Place.
func (p *Pipeline) Selected() world.BlockID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hotbar.Selected()
}

// Select puts id into the hotbar and makes it current.
func (p *Pipeline) Select(id world.BlockID) bool {
	if d := p.blocks.Get(id); d == nil || !d.Placeable {
		return false
	}
	p.mu.Lock()
	p.hotbar.Put(id)
	p.mu.Unlock()
	return true
}

// SelectSlot makes hotbar slot i current.
func (p *Pipeline) SelectSlot(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hotbar.SelectSlot(i)
}

// Scroll moves the hotbar selection.
func (p *Pipeline) Scroll(delta int) {
	p.mu.Lock()
	p.hotbar.Scroll(delta)
	p.mu.Unlock()
}

// Hotbar returns a copy of the hotbar.
func (p *Pipeline) Hotbar() Hotbar {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hotbar
}

// SetHotbar replaces the hotbar contents, e.g. from configuration.
func (p *Pipeline) SetHotbar(h Hotbar) {
	p.mu.Lock()
	p.hotbar = h
	p.mu.Unlock()
}

// Break clears the struck block.
func (p *Pipeline) Break(hit physics.Hit) bool {
	if !hit.Hit {
		return false
	}
	return p.apply(hit.Block, world.BlockData{})
}

// Place puts the selected material in front of the struck face. It refuses
// to overwrite a solid block or to edit a chunk that is not loaded.
func (p *Pipeline) Place(hit physics.Hit) bool {
	if !hit.Hit || hit.Normal == [3]int{} {
		return false
	}
	id := p.Selected()
	if id == world.BlockAir {
		return false
	}
	at := hit.Adjacent()
	if !p.store.IsAir(at[0], at[1], at[2]) {
		return false
	}
	b := world.BlockData{ID: id}
	if p.blocks.IsOriented(id) {
		b.Rotation = world.RotationForNormal(hit.Normal)
	}
	return p.apply(at, b)
}

// Pick selects the struck block's material.
func (p *Pipeline) Pick(hit physics.Hit) bool {
	if !hit.Hit {
		return false
	}
	return p.Select(hit.ID)
}

func (p *Pipeline) apply(pos [3]int, b world.BlockData) bool {
	c := p.store.SetBlock(pos[0], pos[1], pos[2], b)
	if c == nil {
		p.log.Debug("edit refused, chunk not loaded",
			zap.Int("x", pos[0]), zap.Int("y", pos[1]), zap.Int("z", pos[2]))
		return false
	}
	for _, coord := range Affected(pos) {
		p.remesher.Remesh(coord)
	}
	return true
}

// Affected returns the chunk owning pos followed by every face neighbour
// whose border touches pos.
func Affected(pos [3]int) []world.ChunkCoord {
	owner := world.BlockToChunk(pos[0], pos[1], pos[2])
	out := []world.ChunkCoord{owner}
	for axis := 0; axis < 3; axis++ {
		local := world.WorldToLocal(pos[axis])
		var d [3]int
		switch local {
		case 0:
			d[axis] = -1
		case world.ChunkSize - 1:
			d[axis] = 1
		default:
			continue
		}
		f, _ := world.FaceFromNormal(d)
		out = append(out, owner.Neighbor(f))
	}
	return out
}
