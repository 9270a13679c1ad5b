package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Observer body used for collision: a box of half-width ObserverHalfWidth
// standing on its feet position and ObserverHeight tall.
const (
	ObserverHalfWidth = 0.3
	ObserverHeight    = 1.8
)

// Collides reports whether a body with its feet at pos overlaps any solid
// block of src.
func Collides(pos mgl32.Vec3, height float32, src BlockSource) bool {
	minX := cell(float64(pos.X() - ObserverHalfWidth))
	maxX := cell(float64(pos.X() + ObserverHalfWidth))
	minY := cell(float64(pos.Y()))
	maxY := cell(float64(pos.Y() + height))
	minZ := cell(float64(pos.Z() - ObserverHalfWidth))
	maxZ := cell(float64(pos.Z() + ObserverHalfWidth))

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				if src.BlockAt(x, y, z).IsAir() {
					continue
				}
				if OverlapsBlock(pos, height, [3]int{x, y, z}) {
					return true
				}
			}
		}
	}
	return false
}

// OverlapsBlock reports whether a body with its feet at pos intersects the
// unit cube of block b.
func OverlapsBlock(pos mgl32.Vec3, height float32, b [3]int) bool {
	bx, by, bz := float32(b[0]), float32(b[1]), float32(b[2])
	return pos.X()-ObserverHalfWidth < bx+0.5 && pos.X()+ObserverHalfWidth > bx-0.5 &&
		pos.Y() < by+0.5 && pos.Y()+height > by-0.5 &&
		pos.Z()-ObserverHalfWidth < bz+0.5 && pos.Z()+ObserverHalfWidth > bz-0.5
}

// FindGroundLevel returns the top surface of the highest solid block under
// (x, z), searching down from fromY for at most depth blocks. ok is false
// when only air was found.
func FindGroundLevel(x, z, fromY float32, depth int, src BlockSource) (float32, bool) {
	bx := int(math.Round(float64(x)))
	bz := int(math.Round(float64(z)))
	top := cell(float64(fromY))
	for by := top; by > top-depth; by-- {
		if !src.BlockAt(bx, by, bz).IsAir() {
			return float32(by) + 0.5, true
		}
	}
	return 0, false
}
