package physics_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/physics"
	"voxelstream/internal/world"
)

// blockMap is a sparse BlockSource for tests.
type blockMap map[[3]int]world.BlockID

func (m blockMap) BlockAt(x, y, z int) world.BlockData {
	return world.BlockData{ID: m[[3]int{x, y, z}]}
}

func TestRaycast(t *testing.T) {
	src := blockMap{{0, 0, 0}: world.BlockStone}

	start := mgl32.Vec3{0.5, 0.5, -5}
	dir := mgl32.Vec3{0, 0, 1}

	result := physics.Raycast(start, dir, 10, src)
	if !result.Hit {
		t.Fatalf("Expected hit, got miss")
	}
	if result.Block != [3]int{0, 0, 0} {
		t.Errorf("Expected hit at {0,0,0}, got %v", result.Block)
	}
	if result.Normal != [3]int{0, 0, -1} {
		t.Errorf("Expected normal {0,0,-1}, got %v", result.Normal)
	}
	if math.Abs(float64(result.Distance)-4.5) > 1e-4 {
		t.Errorf("Expected distance 4.5, got %f", result.Distance)
	}
	if result.ID != world.BlockStone {
		t.Errorf("Expected stone, got %d", result.ID)
	}
	if result.Adjacent() != [3]int{0, 0, -1} {
		t.Errorf("Expected adjacent {0,0,-1}, got %v", result.Adjacent())
	}

	// Miss due to maxDist.
	if r := physics.Raycast(start, dir, 4, src); r.Hit {
		t.Errorf("Expected miss due to maxDist, got hit at %v", r.Block)
	}

	// Miss in the wrong direction.
	if r := physics.Raycast(start, mgl32.Vec3{0, 1, 0}, 10, src); r.Hit {
		t.Errorf("Expected miss, got hit")
	}

	// Zero direction never hits.
	if r := physics.Raycast(start, mgl32.Vec3{}, 10, src); r.Hit {
		t.Errorf("Expected miss for zero direction")
	}
}

func TestRaycastNegativeAxes(t *testing.T) {
	src := blockMap{{-3, 0, 0}: world.BlockDirt, {0, -4, 0}: world.BlockDirt}

	r := physics.Raycast(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, 0, 0}, 10, src)
	if !r.Hit || r.Block != [3]int{-3, 0, 0} || r.Normal != [3]int{1, 0, 0} {
		t.Fatalf("Unexpected -x hit %+v", r)
	}
	if math.Abs(float64(r.Distance)-2.5) > 1e-4 {
		t.Errorf("Expected distance 2.5, got %f", r.Distance)
	}

	r = physics.Raycast(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, -1, 0}, 10, src)
	if !r.Hit || r.Block != [3]int{0, -4, 0} || r.Normal != [3]int{0, 1, 0} {
		t.Fatalf("Unexpected -y hit %+v", r)
	}
}

func TestRaycastDiagonal(t *testing.T) {
	src := blockMap{{2, 2, 2}: world.BlockStone}
	dir := mgl32.Vec3{1, 1, 1}.Normalize()
	r := physics.Raycast(mgl32.Vec3{0, 0, 0}, dir, 10, src)
	if !r.Hit {
		t.Fatalf("Expected hit at {2,2,2}, got miss")
	}
	if r.Block != [3]int{2, 2, 2} {
		t.Errorf("Expected hit at {2,2,2}, got %v", r.Block)
	}
}

func TestRaycastStartInsideBlock(t *testing.T) {
	src := blockMap{{0, 0, 0}: world.BlockStone}
	r := physics.Raycast(mgl32.Vec3{0.1, 0.1, 0.1}, mgl32.Vec3{1, 0, 0}, 5, src)
	if !r.Hit || r.Distance != 0 || r.Normal != [3]int{} {
		t.Errorf("Expected an immediate hit with no normal, got %+v", r)
	}
}

func TestRaycastAgainstChunkStore(t *testing.T) {
	store := world.NewChunkStore(nil)
	c := world.NewChunk(0, 0, -1)
	c.SetGenerated(3, 3, world.ChunkSize-1, world.BlockData{ID: world.BlockSand})
	store.Insert(c.Key(), c)
	store.MarkLoaded(c.Key())

	r := physics.Raycast(mgl32.Vec3{3, 3, 2}, mgl32.Vec3{0, 0, -1}, physics.MaxReachDistance, store)
	if !r.Hit || r.Block != [3]int{3, 3, -1} || r.ID != world.BlockSand {
		t.Fatalf("Unexpected hit %+v", r)
	}
	if math.Abs(float64(r.Distance)-2.5) > 1e-4 {
		t.Errorf("Expected distance 2.5, got %f", r.Distance)
	}
}
