package streaming

import (
	"sort"

	"voxelstream/internal/world"
)

// Radius is a per-axis Chebyshev bound in chunks: H applies to x and z,
// V to y.
type Radius struct {
	H, V int
}

// Load returns the radius kept resident to supply meshing neighbours:
// one chunk beyond the render radius on every axis.
func (r Radius) Load() Radius {
	return Radius{H: r.H + 1, V: r.V + 1}
}

// Contains reports whether c lies within r of center.
func (r Radius) Contains(center, c world.ChunkCoord) bool {
	return abs(c.X-center.X) <= r.H &&
		abs(c.Z-center.Z) <= r.H &&
		abs(c.Y-center.Y) <= r.V
}

// Volume returns the number of chunks inside r.
func (r Radius) Volume() int {
	return (2*r.H + 1) * (2*r.H + 1) * (2*r.V + 1)
}

// Coords enumerates every coordinate within r of center, nearest first:
// ascending Chebyshev distance, ties broken by Manhattan distance.
func (r Radius) Coords(center world.ChunkCoord) []world.ChunkCoord {
	out := make([]world.ChunkCoord, 0, r.Volume())
	for dy := -r.V; dy <= r.V; dy++ {
		for dz := -r.H; dz <= r.H; dz++ {
			for dx := -r.H; dx <= r.H; dx++ {
				out = append(out, world.ChunkCoord{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz})
			}
		}
	}
	SortNearest(center, out)
	return out
}

// SortNearest orders coords by Chebyshev then Manhattan distance from
// center. The sort is stable so equal coordinates keep enumeration order.
func SortNearest(center world.ChunkCoord, coords []world.ChunkCoord) {
	sort.SliceStable(coords, func(i, j int) bool {
		ci, cj := chebyshev(center, coords[i]), chebyshev(center, coords[j])
		if ci != cj {
			return ci < cj
		}
		return manhattan(center, coords[i]) < manhattan(center, coords[j])
	})
}

func chebyshev(a, b world.ChunkCoord) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y), abs(a.Z-b.Z))
}

func manhattan(a, b world.ChunkCoord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
