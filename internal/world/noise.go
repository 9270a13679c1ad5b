package world

import (
	"math"
)

// Deterministic value noise with integer lattice hashing.

// fade function is used for smoothing (6t^5 - 15t^4 + 10t^3)
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// splitmix finalizer, stable across runs for same inputs
func splitmix(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func hash2(x int64, z int64, seed int64) uint64 {
	return splitmix(uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15)
}

func hash3(x, y, z int64, seed int64) uint64 {
	return splitmix(uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed))
}

func latticeValue(x int64, z int64, seed int64) float64 {
	h := hash2(x, z, seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func latticeValue3D(x, y, z int64, seed int64) float64 {
	h := hash3(x, y, z, seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x float64, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	fx := fade(x - x0)
	fz := fade(z - z0)
	ix, iz := int64(x0), int64(z0)

	v00 := latticeValue(ix, iz, seed)
	v10 := latticeValue(ix+1, iz, seed)
	v01 := latticeValue(ix, iz+1, seed)
	v11 := latticeValue(ix+1, iz+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fz) // [0,1]
}

func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)
	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	v000 := latticeValue3D(ix, iy, iz, seed)
	v100 := latticeValue3D(ix+1, iy, iz, seed)
	v010 := latticeValue3D(ix, iy+1, iz, seed)
	v110 := latticeValue3D(ix+1, iy+1, iz, seed)
	v001 := latticeValue3D(ix, iy, iz+1, seed)
	v101 := latticeValue3D(ix+1, iy, iz+1, seed)
	v011 := latticeValue3D(ix, iy+1, iz+1, seed)
	v111 := latticeValue3D(ix+1, iy+1, iz+1, seed)

	i0 := lerp(lerp(v000, v100, fx), lerp(v010, v110, fx), fy)
	i1 := lerp(lerp(v001, v101, fx), lerp(v011, v111, fx), fy)
	return lerp(i0, i1, fz) // [0,1]
}

func octaveNoise2D(x float64, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := range octaves {
		v := valueNoise2D(x*frequency, z*frequency, seed+int64(i*131))
		sum += v * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm // [0,1]
}

func octaveNoise3D(x, y, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := range octaves {
		v := valueNoise3D(x*frequency, y*frequency, z*frequency, seed+int64(i*131))
		sum += v * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm // [0,1]
}

// Noise samples the terrain fields for one world seed.
type Noise struct {
	seed int64
}

// NewNoise creates a sampler for seed.
func NewNoise(seed int64) Noise {
	return Noise{seed: seed}
}

// Field offsets keep height, temperature and moisture independent.
const (
	fieldHeight      = 0
	fieldTemperature = 1
	fieldMoisture    = 2
	fieldCaves       = 3
)

func (n Noise) fieldSeed(field int64) int64 {
	return n.seed + field*0x2545F491
}

// Height returns the squared fractal height sample at a column, in [0,1].
func (n Noise) Height(x, z int) float64 {
	const scale = 0.01
	v := octaveNoise2D(float64(x)*scale, float64(z)*scale, n.fieldSeed(fieldHeight), 8, 0.5, 2)
	return v * v
}

// Climate returns squared temperature and moisture samples, in [0,1].
func (n Noise) Climate(x, z int) (temp, moist float64) {
	const scale = 0.002
	fx, fz := float64(x)*scale, float64(z)*scale
	t := octaveNoise2D(fx, fz, n.fieldSeed(fieldTemperature), 4, 0.2, 2)
	m := octaveNoise2D(fx, fz, n.fieldSeed(fieldMoisture), 4, 0.2, 2)
	return t * t, m * m
}

// Cave3D is the fractal cave density, in [0,1].
func (n Noise) Cave3D(x, y, z int, scale float64) float64 {
	return octaveNoise3D(float64(x)*scale, float64(y)*scale, float64(z)*scale, n.fieldSeed(fieldCaves), 4, 0.3, 1.5)
}

// CaveAt reports whether voxel (x,y,z) under a column of surface height
// worldHeight is carved out. Caves thin out towards the surface and grow
// larger with depth.
func (n Noise) CaveAt(x, y, z, worldHeight int) bool {
	interval := 0.85

	minHeight := float64(worldHeight - 8)
	surfaceFactor := clamp01(1 - (float64(y)-minHeight)/(float64(worldHeight)-minHeight))
	interval -= 0.25 * surfaceFactor

	const bigCavesY = -30.0
	smallCavesY := float64(min(worldHeight-20, 30))
	depthFactor := 1.0
	if smallCavesY != bigCavesY {
		depthFactor = clamp01(1 - (float64(y)-bigCavesY)/(smallCavesY-bigCavesY))
	}

	return n.Cave3D(x, y, z, 0.07-0.03*depthFactor) > interval
}
