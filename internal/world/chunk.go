package world

import "sync"

// Chunk is a ChunkSize³ cube of voxels plus the log of user modifications.
//
// blocks is the dense grid indexed x + y*S + z*S*S. modified holds only the
// voxels that differ from the generated baseline; every entry in it equals
// the dense entry at the same position.
type Chunk struct {
	Coord ChunkCoord

	mu       sync.RWMutex
	blocks   []BlockData
	modified map[uint64]BlockData
}

// NewChunk creates an all-air chunk at the specified chunk coordinates.
func NewChunk(x, y, z int) *Chunk {
	return &Chunk{
		Coord:    ChunkCoord{X: x, Y: y, Z: z},
		blocks:   make([]BlockData, ChunkVolume),
		modified: make(map[uint64]BlockData),
	}
}

// index converts local coordinates to a flat index.
func index(x, y, z int) int {
	return x + y*ChunkSize + z*ChunkSize*ChunkSize
}

func inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// Key returns the store key of the chunk.
func (c *Chunk) Key() Key {
	return c.Coord.Key()
}

// Origin returns the world position of local voxel (0,0,0).
func (c *Chunk) Origin() (int, int, int) {
	return c.Coord.Origin()
}

// Block returns the voxel at local coordinates. Out-of-range reads return air.
func (c *Chunk) Block(x, y, z int) BlockData {
	if !inBounds(x, y, z) {
		return BlockData{}
	}
	c.mu.RLock()
	b := c.blocks[index(x, y, z)]
	c.mu.RUnlock()
	return b
}

// SetGenerated writes the baseline without touching the modification log.
// Only terrain generation uses it, before the chunk is published.
func (c *Chunk) SetGenerated(x, y, z int, b BlockData) {
	if !inBounds(x, y, z) {
		return
	}
	c.blocks[index(x, y, z)] = b
}

// generated reads the dense grid without locking; generation owns the chunk.
func (c *Chunk) generated(x, y, z int) BlockData {
	return c.blocks[index(x, y, z)]
}

// SetModified writes a voxel and records it in the modification log.
func (c *Chunk) SetModified(x, y, z int, b BlockData) bool {
	if !inBounds(x, y, z) {
		return false
	}
	c.mu.Lock()
	c.blocks[index(x, y, z)] = b
	c.modified[LocalKey(x, y, z)] = b
	c.mu.Unlock()
	return true
}

// ModifiedCount returns the number of logged modifications.
func (c *Chunk) ModifiedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.modified)
}

// Modified returns a copy of the modification log.
func (c *Chunk) Modified() map[uint64]BlockData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint64]BlockData, len(c.modified))
	for k, v := range c.modified {
		out[k] = v
	}
	return out
}

// Snapshot copies the dense grid. Meshing works on snapshots so edits never
// race with a build in progress.
func (c *Chunk) Snapshot() []BlockData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BlockData, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// IsEmpty reports whether every voxel is air.
func (c *Chunk) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.blocks {
		if !b.IsAir() {
			return false
		}
	}
	return true
}

// Equal reports whether two chunks hold identical dense grids.
func (c *Chunk) Equal(o *Chunk) bool {
	a, b := c.Snapshot(), o.Snapshot()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
