package world

// TerrainGenerator fills freshly created chunks with baseline terrain.
// Implementations must be deterministic in (seed, chunk coordinate).
type TerrainGenerator interface {
	HeightAt(worldX, worldZ int) int
	Generate(c *Chunk)
}

// GenOptions tunes the standard generator.
type GenOptions struct {
	// Caves toggles cave carving.
	Caves bool
	// CaveFloor is the lowest world y that may be carved. Everything below
	// stays solid.
	CaveFloor int
	// CaveCeiling is the highest world y that may be carved.
	CaveCeiling int
	// Ores toggles the vein pass.
	Ores bool
}

// DefaultGenOptions enables every pass with a deep cave floor and a high
// ceiling.
func DefaultGenOptions() GenOptions {
	return GenOptions{Caves: true, CaveFloor: -64, CaveCeiling: 128, Ores: true}
}

// Generator handles terrain generation logic.
type Generator struct {
	seed  int64
	noise Noise
	opts  GenOptions
}

// NewGenerator creates a new generator for seed.
func NewGenerator(seed int64, opts GenOptions) *Generator {
	return &Generator{seed: seed, noise: NewNoise(seed), opts: opts}
}

// Seed returns the world seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// column holds the per-(x,z) samples shared by every voxel of a column.
type column struct {
	height int
	biome  *Biome
}

func (g *Generator) sampleColumn(worldX, worldZ int) column {
	h := g.noise.Height(worldX, worldZ)
	t, m := g.noise.Climate(worldX, worldZ)
	return column{height: BlendedHeight(h, t, m), biome: BiomeAt(t, m)}
}

// HeightAt computes world surface height (block Y) at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	return g.sampleColumn(worldX, worldZ).height
}

// BiomeAt returns the biome of a column.
func (g *Generator) BiomeAt(worldX, worldZ int) *Biome {
	return g.sampleColumn(worldX, worldZ).biome
}

// Generate fills c with terrain. c must not be shared yet.
func (g *Generator) Generate(c *Chunk) {
	ox, oy, oz := c.Origin()
	rng := newChunkRNG(g.seed, c.Coord, 0)

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			wx, wz := ox+x, oz+z
			col := g.sampleColumn(wx, wz)
			if oy >= col.height {
				continue
			}
			for y := 0; y < ChunkSize; y++ {
				wy := oy + y
				if wy >= col.height {
					break
				}
				r := rng.float()
				id := g.surfaceBlock(col, wy, r)
				if g.opts.Caves && wy >= g.opts.CaveFloor && wy <= g.opts.CaveCeiling && g.noise.CaveAt(wx, wy, wz, col.height) {
					continue
				}
				c.SetGenerated(x, y, z, BlockData{ID: id})
			}
		}
	}

	if g.opts.Ores {
		g.placeOres(c)
	}
}

// surfaceBlock picks the material for a solid voxel at world height wy.
func (g *Generator) surfaceBlock(col column, wy int, r float64) BlockID {
	if wy < col.height-3 {
		if wy < 0 {
			return BlockDarkStone
		}
		return BlockStone
	}
	id := col.biome.pick(r)
	if id == BlockDirt && wy == col.height-1 {
		id = BlockGrass
	}
	return id
}

// FlatGenerator produces a flat world for tests and debugging.
type FlatGenerator struct {
	height int
}

// NewFlatGenerator creates a generator whose surface sits at height.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{height: height}
}

func (g *FlatGenerator) HeightAt(worldX, worldZ int) int {
	return g.height
}

// Generate fills stone up to three blocks below the surface, then dirt
// capped with grass.
func (g *FlatGenerator) Generate(c *Chunk) {
	_, oy, _ := c.Origin()
	for y := 0; y < ChunkSize; y++ {
		wy := oy + y
		if wy >= g.height {
			break
		}
		id := BlockDirt
		switch {
		case wy == g.height-1:
			id = BlockGrass
		case wy < g.height-3:
			id = BlockStone
		}
		for x := 0; x < ChunkSize; x++ {
			for z := 0; z < ChunkSize; z++ {
				c.SetGenerated(x, y, z, BlockData{ID: id})
			}
		}
	}
}

// chunkRNG is a deterministic LCG seeded from the world seed, the chunk
// coordinate and a salt.
type chunkRNG struct {
	state uint64
}

func newChunkRNG(seed int64, c ChunkCoord, salt int64) *chunkRNG {
	s := uint64(seed) ^ (uint64(int64(c.X))*341873128712 + uint64(int64(c.Y))*2654435761 + uint64(int64(c.Z))*132897987541 + uint64(salt)*0x9E3779B97F4A7C15)
	return &chunkRNG{state: splitmix(s)}
}

func (r *chunkRNG) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// intn returns a value in [0, n).
func (r *chunkRNG) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int((r.next() >> 33) % uint64(n))
}

// float returns a value in [0, 1).
func (r *chunkRNG) float() float64 {
	return float64(r.next()>>11) / float64(1<<53)
}

// rangef returns a value in [lo, hi).
func (r *chunkRNG) rangef(lo, hi float64) float64 {
	return lo + r.float()*(hi-lo)
}

// rangei returns a value in [lo, hi].
func (r *chunkRNG) rangei(lo, hi int) int {
	return lo + r.intn(hi-lo+1)
}
