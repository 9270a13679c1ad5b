package world

import "math"

// oreTier describes one kind of vein.
type oreTier struct {
	ore, darkOre         BlockID
	minVeins, maxVeins   int
	minRadius, maxRadius float64
	maxBlocks            int // cap per vein
	maxY                 int // no veins centred above this world y
}

var oreTiers = []oreTier{
	{ore: BlockCoalOre, darkOre: BlockDarkCoalOre, minVeins: 0, maxVeins: 2, minRadius: 2, maxRadius: 4, maxBlocks: 24, maxY: 96},
	{ore: BlockIronOre, darkOre: BlockDarkIronOre, minVeins: 0, maxVeins: 2, minRadius: 1.5, maxRadius: 3, maxBlocks: 12, maxY: 48},
	{ore: BlockGoldOre, darkOre: BlockDarkGoldOre, minVeins: 0, maxVeins: 1, minRadius: 1.5, maxRadius: 2.5, maxBlocks: 8, maxY: 16},
	{ore: BlockDiamondOre, darkOre: BlockDarkDiamondOre, minVeins: 0, maxVeins: 1, minRadius: 1, maxRadius: 2, maxBlocks: 5, maxY: -16},
}

// placeOres runs the vein pass over a generated chunk. Only stone and dark
// stone are replaced; dark stone becomes the dark variant of the ore.
func (g *Generator) placeOres(c *Chunk) {
	_, oy, _ := c.Origin()
	for tier, t := range oreTiers {
		rng := newChunkRNG(g.seed, c.Coord, int64(tier)+1)
		veins := rng.rangei(t.minVeins, t.maxVeins)
		for range veins {
			cx := rng.intn(ChunkSize)
			cy := rng.intn(ChunkSize)
			cz := rng.intn(ChunkSize)
			radius := rng.rangef(t.minRadius, t.maxRadius)
			limit := rng.rangei(t.maxBlocks/2, t.maxBlocks)
			if oy+cy > t.maxY {
				continue
			}
			fillVein(c, cx, cy, cz, radius, limit, t)
		}
	}
}

func fillVein(c *Chunk, cx, cy, cz int, radius float64, limit int, t oreTier) {
	r := int(math.Ceil(radius))
	placed := 0
	for dy := -r; dy <= r; dy++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if placed >= limit {
					return
				}
				if math.Sqrt(float64(dx*dx+dy*dy+dz*dz)) > radius {
					continue
				}
				x, y, z := cx+dx, cy+dy, cz+dz
				if !inBounds(x, y, z) {
					continue
				}
				switch c.generated(x, y, z).ID {
				case BlockStone:
					c.SetGenerated(x, y, z, BlockData{ID: t.ore})
				case BlockDarkStone:
					c.SetGenerated(x, y, z, BlockData{ID: t.darkOre})
				default:
					continue
				}
				placed++
			}
		}
	}
}
