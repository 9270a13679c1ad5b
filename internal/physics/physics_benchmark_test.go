package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/world"
)

func BenchmarkRaycast(b *testing.B) {
	store := world.NewChunkStore(nil)
	c := world.NewChunk(0, 0, 0)
	// Build a simple wall
	for x := 0; x < world.ChunkSize; x++ {
		for y := 0; y < world.ChunkSize; y++ {
			c.SetGenerated(x, y, 5, world.BlockData{ID: world.BlockGrass})
		}
	}
	store.Insert(c.Key(), c)
	start := mgl32.Vec3{0, 8, 0}
	dir := mgl32.Vec3{0, 0, 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Raycast(start, dir, 10.0, store)
	}
}
