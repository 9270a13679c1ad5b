package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/world"
)

type solidBelow int

func (s solidBelow) BlockAt(_, y, _ int) world.BlockData {
	if y < int(s) {
		return world.BlockData{ID: world.BlockStone}
	}
	return world.BlockData{}
}

func TestCollides(t *testing.T) {
	ground := solidBelow(10) // top surface at y = 9.5
	if Collides(mgl32.Vec3{0, 10, 0}, ObserverHeight, ground) {
		t.Errorf("Expected no collision standing above the surface")
	}
	if !Collides(mgl32.Vec3{0, 9, 0}, ObserverHeight, ground) {
		t.Errorf("Expected collision with feet inside the ground")
	}
}

func TestFindGroundLevel(t *testing.T) {
	y, ok := FindGroundLevel(3, -7, 40, 64, solidBelow(10))
	if !ok || y != 9.5 {
		t.Errorf("Expected ground at 9.5, got %v (ok=%v)", y, ok)
	}
	if _, ok := FindGroundLevel(0, 0, 40, 8, solidBelow(10)); ok {
		t.Errorf("Expected no ground within a short search depth")
	}
}

func BenchmarkCollides(b *testing.B) {
	gen := world.NewFlatGenerator(64)
	store := world.NewChunkStore(nil)
	for cy := 2; cy <= 5; cy++ {
		c := world.NewChunk(0, cy, 0)
		gen.Generate(c)
		store.Insert(c.Key(), c)
		store.MarkLoaded(c.Key())
	}
	pos := mgl32.Vec3{4, 70, 4}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Collides(pos, ObserverHeight, store)
	}
}
