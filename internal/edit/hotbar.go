package edit

import "voxelstream/internal/world"

const HotbarSize = 9

// Hotbar is the row of materials the observer can place from.
type Hotbar struct {
	Slots   [HotbarSize]world.BlockID
	Current int // Index 0-8
}

// DefaultHotbar holds the common building materials.
func DefaultHotbar() Hotbar {
	return Hotbar{Slots: [HotbarSize]world.BlockID{
		world.BlockDirt,
		world.BlockGrass,
		world.BlockStone,
		world.BlockCobblestone,
		world.BlockSand,
		world.BlockOak,
		world.BlockTerracota,
		world.BlockDarkStone,
		world.BlockWater,
	}}
}

// Selected returns the material in the current slot.
func (h *Hotbar) Selected() world.BlockID {
	return h.Slots[h.Current]
}

// SelectSlot makes slot i current. Out of range indices are ignored.
func (h *Hotbar) SelectSlot(i int) bool {
	if i < 0 || i >= HotbarSize {
		return false
	}
	h.Current = i
	return true
}

// Scroll moves the selection by delta slots, wrapping around.
func (h *Hotbar) Scroll(delta int) {
	h.Current = ((h.Current+delta)%HotbarSize + HotbarSize) % HotbarSize
}

// Put stores id in the current slot, or selects the slot already holding it.
func (h *Hotbar) Put(id world.BlockID) {
	for i, s := range h.Slots {
		if s == id {
			h.Current = i
			return
		}
	}
	h.Slots[h.Current] = id
}
