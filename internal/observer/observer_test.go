package observer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/world"
)

// terrain is solid below floor and at any listed wall block.
type terrain struct {
	floor int
	walls map[[3]int]bool
}

func (t terrain) BlockAt(x, y, z int) world.BlockData {
	if y < t.floor || t.walls[[3]int{x, y, z}] {
		return world.BlockData{ID: world.BlockStone}
	}
	return world.BlockData{}
}

const step = 1.0 / 60

func TestFallsAndLands(t *testing.T) {
	src := terrain{floor: 8}
	o := New(mgl32.Vec3{0, 12, 0})
	for i := 0; i < 240; i++ {
		o.Move(step, Intent{}, src)
	}
	if !o.OnGround {
		t.Fatalf("Expected to be on ground, at %v", o.Position)
	}
	if math.Abs(float64(o.Position.Y()-7.5)) > 1e-4 {
		t.Errorf("Expected feet on the surface at 7.5, got %v", o.Position.Y())
	}
}

func TestJumpLeavesGround(t *testing.T) {
	src := terrain{floor: 8}
	o := New(mgl32.Vec3{0, 7.5, 0})
	o.Move(step, Intent{}, src)
	if !o.OnGround {
		t.Fatalf("Expected standing observer on ground")
	}
	o.Move(step, Intent{Jump: true}, src)
	if o.OnGround || o.Position.Y() <= 7.5 {
		t.Errorf("Expected to rise after jumping, at %v", o.Position)
	}
}

func TestWallStopsWalking(t *testing.T) {
	walls := map[[3]int]bool{}
	for y := 8; y < 12; y++ {
		for z := -3; z <= 3; z++ {
			walls[[3]int{3, y, z}] = true
		}
	}
	src := terrain{floor: 8, walls: walls}
	o := New(mgl32.Vec3{0, 7.5, 0})
	o.Yaw = 0 // facing +X
	for i := 0; i < 300; i++ {
		o.Move(step, Intent{Forward: 1}, src)
	}
	limit := float32(3 - 0.5 - 0.3)
	if o.Position.X() > limit+1e-3 {
		t.Errorf("Expected the wall at x=2.5 to stop the body, got x=%v", o.Position.X())
	}
	if o.Position.X() < limit-0.2 {
		t.Errorf("Expected to walk up to the wall, got x=%v", o.Position.X())
	}
}

func TestFlyingIgnoresGravity(t *testing.T) {
	src := terrain{floor: -100}
	o := New(mgl32.Vec3{0, 50, 0})
	o.Flying = true
	for i := 0; i < 60; i++ {
		o.Move(step, Intent{}, src)
	}
	if o.Position.Y() != 50 {
		t.Errorf("Expected to hover, got y=%v", o.Position.Y())
	}
	for i := 0; i < 60; i++ {
		o.Move(step, Intent{Up: true}, src)
	}
	if o.Position.Y() <= 50 {
		t.Errorf("Expected to climb, got y=%v", o.Position.Y())
	}
}

func TestLookClampsPitch(t *testing.T) {
	o := New(mgl32.Vec3{})
	if f := o.Front(); math.Abs(float64(f.Z()+1)) > 1e-5 {
		t.Errorf("Expected to face -Z, got %v", f)
	}
	o.Look(0, 200)
	if o.Pitch != 89 {
		t.Errorf("Expected pitch clamped to 89, got %v", o.Pitch)
	}
	o.HandleCursor(100, 100, 0.1)
	o.HandleCursor(110, 100, 0.1)
	if math.Abs(o.Yaw-(-89)) > 1e-9 {
		t.Errorf("Expected yaw -89 after a 10px move, got %v", o.Yaw)
	}
}
