package world

import (
	"sync"

	"voxelstream/internal/profiling"
)

// ChunkStore owns the resident chunks and the set of chunks whose
// generation has completed.
//
// Chunks are handed out as shared pointers: a meshing worker that fetched a
// chunk keeps a valid reference after the store lock is released, even if
// the chunk is evicted meanwhile.
type ChunkStore struct {
	mu       sync.RWMutex
	chunks   map[Key]*Chunk
	loaded   map[Key]struct{}
	modCount uint64 // Increases on any chunk add/remove

	prof *profiling.Profiler
}

// NewChunkStore creates a new chunk store. prof may be nil.
func NewChunkStore(prof *profiling.Profiler) *ChunkStore {
	return &ChunkStore{
		chunks: make(map[Key]*Chunk),
		loaded: make(map[Key]struct{}),
		prof:   prof,
	}
}

// Get returns the chunk stored under key.
func (cs *ChunkStore) Get(key Key) (*Chunk, bool) {
	cs.mu.RLock()
	c, ok := cs.chunks[key]
	cs.mu.RUnlock()
	return c, ok
}

// Contains reports whether key is resident.
func (cs *ChunkStore) Contains(key Key) bool {
	cs.mu.RLock()
	_, ok := cs.chunks[key]
	cs.mu.RUnlock()
	return ok
}

// Insert adds a chunk. An existing chunk under the same key is kept and
// false is returned.
func (cs *ChunkStore) Insert(key Key, c *Chunk) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[key]; ok {
		return false
	}
	cs.chunks[key] = c
	cs.modCount++
	return true
}

// Erase removes a chunk and returns it so the caller can flush it.
func (cs *ChunkStore) Erase(key Key) (*Chunk, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c, ok := cs.chunks[key]
	if !ok {
		return nil, false
	}
	delete(cs.chunks, key)
	delete(cs.loaded, key)
	cs.modCount++
	return c, true
}

// EraseIf removes every chunk for which drop returns true, in a single
// exclusive section, and returns the removed chunks.
func (cs *ChunkStore) EraseIf(drop func(ChunkCoord) bool) []*Chunk {
	defer cs.prof.Track("world.EraseIf")()
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var removed []*Chunk
	for key, c := range cs.chunks {
		if !drop(c.Coord) {
			continue
		}
		delete(cs.chunks, key)
		delete(cs.loaded, key)
		cs.modCount++
		removed = append(removed, c)
	}
	return removed
}

// Range calls fn for every resident chunk under the read lock.
// fn must not call back into the store's mutating methods.
func (cs *ChunkStore) Range(fn func(Key, *Chunk) bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for k, c := range cs.chunks {
		if !fn(k, c) {
			return
		}
	}
}

// Keys returns the keys of the resident chunks.
func (cs *ChunkStore) Keys() []Key {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]Key, 0, len(cs.chunks))
	for k := range cs.chunks {
		out = append(out, k)
	}
	return out
}

// All returns a snapshot of the resident chunks.
func (cs *ChunkStore) All() []*Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]*Chunk, 0, len(cs.chunks))
	for _, c := range cs.chunks {
		out = append(out, c)
	}
	return out
}

// Len returns the number of resident chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// ModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) ModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// MarkLoaded flags a resident chunk as fully generated.
func (cs *ChunkStore) MarkLoaded(key Key) {
	cs.mu.Lock()
	if _, ok := cs.chunks[key]; ok {
		cs.loaded[key] = struct{}{}
	}
	cs.mu.Unlock()
}

// IsLoaded reports whether key finished generation and is still resident.
func (cs *ChunkStore) IsLoaded(key Key) bool {
	cs.mu.RLock()
	_, ok := cs.loaded[key]
	cs.mu.RUnlock()
	return ok
}

// LoadedCount returns the size of the loaded set.
func (cs *ChunkStore) LoadedCount() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.loaded)
}

// NeighborsLoaded reports whether all six face neighbours of c are loaded.
func (cs *ChunkStore) NeighborsLoaded(c ChunkCoord) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, f := range AllFaces {
		if _, ok := cs.loaded[c.Neighbor(f).Key()]; !ok {
			return false
		}
	}
	return true
}

// Neighbors returns the loaded face neighbours of c in face order.
// Missing or still-generating neighbours are nil.
func (cs *ChunkStore) Neighbors(c ChunkCoord) [6]*Chunk {
	var out [6]*Chunk
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, f := range AllFaces {
		k := c.Neighbor(f).Key()
		if _, ok := cs.loaded[k]; ok {
			out[f] = cs.chunks[k]
		}
	}
	return out
}

// BlockAt returns the voxel at world coordinates. Missing chunks read as air.
func (cs *ChunkStore) BlockAt(x, y, z int) BlockData {
	c, ok := cs.Get(BlockToChunk(x, y, z).Key())
	if !ok {
		return BlockData{}
	}
	return c.Block(WorldToLocal(x), WorldToLocal(y), WorldToLocal(z))
}

// IsAir checks if the block at the specified world coordinates is air.
func (cs *ChunkStore) IsAir(x, y, z int) bool {
	return cs.BlockAt(x, y, z).IsAir()
}

// SetBlock records a modification at world coordinates. It returns the
// owning chunk, or nil when that chunk is not loaded.
func (cs *ChunkStore) SetBlock(x, y, z int, b BlockData) *Chunk {
	key := BlockToChunk(x, y, z).Key()
	if !cs.IsLoaded(key) {
		return nil
	}
	c, ok := cs.Get(key)
	if !ok {
		return nil
	}
	c.SetModified(WorldToLocal(x), WorldToLocal(y), WorldToLocal(z), b)
	return c
}
