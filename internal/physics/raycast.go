package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/world"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0
)

// BlockSource resolves world block coordinates. *world.ChunkStore
// implements it; missing chunks read as air.
type BlockSource interface {
	BlockAt(x, y, z int) world.BlockData
}

// Hit is the result of a raycast. Hit is false on a miss.
type Hit struct {
	Block    [3]int
	Normal   [3]int
	Distance float32
	ID       world.BlockID
	Hit      bool
}

// Adjacent returns the block in front of the struck face, where a placed
// block goes.
func (h Hit) Adjacent() [3]int {
	return [3]int{h.Block[0] + h.Normal[0], h.Block[1] + h.Normal[1], h.Block[2] + h.Normal[2]}
}

// BlockAt returns the block coordinate containing p. Blocks are centred on
// integer coordinates: block i spans (i-0.5, i+0.5] on each axis.
func BlockAt(p mgl32.Vec3) [3]int {
	return [3]int{cell(float64(p[0])), cell(float64(p[1])), cell(float64(p[2]))}
}

func cell(v float64) int {
	return int(math.Ceil(v - 0.5))
}

// Raycast walks the voxel grid from start along direction (Amanatides-Woo)
// and returns the first solid block within maxDist. Distance is the ray
// parameter at which the ray enters the struck block; Normal points from
// that block back toward the ray.
func Raycast(start, direction mgl32.Vec3, maxDist float32, src BlockSource) Hit {
	if direction.Len() == 0 {
		return Hit{}
	}
	dir := direction.Normalize()

	var (
		pos    = BlockAt(start)
		step   [3]int
		tMax   [3]float64
		tDelta [3]float64
	)
	for i := 0; i < 3; i++ {
		o, d := float64(start[i]), float64(dir[i])
		switch {
		case d > 0:
			step[i] = 1
			tMax[i] = (float64(pos[i]) + 0.5 - o) / d
			tDelta[i] = 1 / d
		case d < 0:
			step[i] = -1
			tMax[i] = (float64(pos[i]) - 0.5 - o) / d
			tDelta[i] = -1 / d
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}

	t := 0.0
	axis := -1
	limit := float64(maxDist)
	for t <= limit {
		if b := src.BlockAt(pos[0], pos[1], pos[2]); !b.IsAir() {
			h := Hit{Block: pos, Distance: float32(t), ID: b.ID, Hit: true}
			if axis >= 0 {
				h.Normal[axis] = -step[axis]
			}
			return h
		}

		// advance to the next block boundary
		switch {
		case tMax[0] < tMax[1] && tMax[0] < tMax[2]:
			axis = 0
		case tMax[1] < tMax[2]:
			axis = 1
		default:
			axis = 2
		}
		pos[axis] += step[axis]
		t = tMax[axis]
		tMax[axis] += tDelta[axis]
	}
	return Hit{}
}
