package world

import (
	"sync"
	"testing"
)

func TestChunkOverlayMatchesDense(t *testing.T) {
	c := NewChunk(0, 0, 0)
	c.SetGenerated(1, 1, 1, BlockData{ID: BlockStone})
	if c.ModifiedCount() != 0 {
		t.Fatalf("Expected empty overlay after generation write")
	}

	c.SetModified(1, 1, 1, BlockData{})
	c.SetModified(2, 3, 4, BlockData{ID: BlockOak, Rotation: RotationX})

	for k, v := range c.Modified() {
		x, y, z := DecodeLocalKey(k)
		if c.Block(x, y, z) != v {
			t.Errorf("Overlay entry at %d,%d,%d does not match dense grid", x, y, z)
		}
	}
	if c.ModifiedCount() != 2 {
		t.Errorf("Expected 2 modifications, got %d", c.ModifiedCount())
	}
	if c.SetModified(ChunkSize, 0, 0, BlockData{ID: BlockDirt}) {
		t.Errorf("Expected out-of-range write to be rejected")
	}
}

func TestStoreInsertEraseLoaded(t *testing.T) {
	s := NewChunkStore(nil)
	c := NewChunk(1, 2, 3)
	if !s.Insert(c.Key(), c) {
		t.Fatalf("Expected insert to succeed")
	}
	if s.Insert(c.Key(), NewChunk(1, 2, 3)) {
		t.Errorf("Expected duplicate insert to be refused")
	}
	if s.IsLoaded(c.Key()) {
		t.Errorf("Chunk must not be loaded before MarkLoaded")
	}
	s.MarkLoaded(c.Key())
	if !s.IsLoaded(c.Key()) {
		t.Errorf("Expected chunk to be loaded")
	}

	got, ok := s.Erase(c.Key())
	if !ok || got != c {
		t.Fatalf("Expected Erase to hand back the stored chunk")
	}
	if s.Contains(c.Key()) || s.IsLoaded(c.Key()) {
		t.Errorf("Expected chunk gone from store and loaded set")
	}
	if s.ModCount() != 2 {
		t.Errorf("Expected mod count 2, got %d", s.ModCount())
	}
}

func TestStoreMarkLoadedIgnoresMissing(t *testing.T) {
	s := NewChunkStore(nil)
	k := EncodeKey(5, 5, 5)
	s.MarkLoaded(k)
	if s.IsLoaded(k) {
		t.Errorf("Expected MarkLoaded of a missing chunk to be ignored")
	}
}

func TestStoreNeighbors(t *testing.T) {
	s := NewChunkStore(nil)
	center := ChunkCoord{0, 0, 0}
	for _, f := range AllFaces {
		n := center.Neighbor(f)
		c := NewChunk(n.X, n.Y, n.Z)
		s.Insert(c.Key(), c)
		if f != FacePosY {
			s.MarkLoaded(c.Key())
		}
	}
	if s.NeighborsLoaded(center) {
		t.Errorf("Expected neighbours not ready while +Y is still generating")
	}
	nb := s.Neighbors(center)
	if nb[FacePosY] != nil {
		t.Errorf("Expected generating neighbour to be reported as nil")
	}
	if nb[FaceNegX] == nil || nb[FaceNegX].Coord != (ChunkCoord{-1, 0, 0}) {
		t.Errorf("Expected -X neighbour at -1,0,0")
	}

	s.MarkLoaded(center.Neighbor(FacePosY).Key())
	if !s.NeighborsLoaded(center) {
		t.Errorf("Expected all neighbours loaded")
	}
}

func TestStoreWorldAccess(t *testing.T) {
	s := NewChunkStore(nil)
	c := NewChunk(-1, -1, -1)
	s.Insert(c.Key(), c)

	if s.SetBlock(-1, -1, -1, BlockData{ID: BlockSand}) != nil {
		t.Errorf("Expected edit of an unloaded chunk to be refused")
	}
	s.MarkLoaded(c.Key())
	if s.SetBlock(-1, -1, -1, BlockData{ID: BlockSand}) != c {
		t.Fatalf("Expected edit to land in chunk -1,-1,-1")
	}
	if got := c.Block(ChunkSize-1, ChunkSize-1, ChunkSize-1); got.ID != BlockSand {
		t.Errorf("Expected Sand at local S-1, got %v", got.ID)
	}
	if s.BlockAt(-1, -1, -1).ID != BlockSand {
		t.Errorf("Expected BlockAt to read the edit")
	}
	if !s.IsAir(100, 100, 100) {
		t.Errorf("Expected missing chunk to read as air")
	}
}

func TestStoreEraseIf(t *testing.T) {
	s := NewChunkStore(nil)
	for x := -3; x <= 3; x++ {
		c := NewChunk(x, 0, 0)
		s.Insert(c.Key(), c)
	}
	removed := s.EraseIf(func(c ChunkCoord) bool { return c.X < -1 || c.X > 1 })
	if len(removed) != 4 {
		t.Errorf("Expected 4 removed, got %d", len(removed))
	}
	if s.Len() != 3 {
		t.Errorf("Expected 3 resident, got %d", s.Len())
	}
	for _, k := range s.Keys() {
		if x := k.Decode().X; x < -1 || x > 1 {
			t.Errorf("Unexpected resident key for x=%d", x)
		}
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewChunkStore(nil)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c := NewChunk(i, w, 0)
				s.Insert(c.Key(), c)
				s.MarkLoaded(c.Key())
				_ = s.NeighborsLoaded(c.Coord)
				if i%3 == 0 {
					s.Erase(c.Key())
				}
			}
		}(w)
	}
	wg.Wait()
	if s.LoadedCount() != s.Len() {
		t.Errorf("Loaded set (%d) diverged from resident set (%d)", s.LoadedCount(), s.Len())
	}
}
