package world

import (
	"math"
)

// BiomeType names a climate classification.
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeMountains
	BiomeForest
	BiomeOcean
	BiomeSavana
)

func (b BiomeType) String() string {
	if int(b) < len(Biomes) {
		return Biomes[b].Name
	}
	return "Unknown"
}

// BlockVariant is one weighted surface material of a biome.
type BlockVariant struct {
	Probability float64
	Block       BlockID
}

// Biome defines the properties of a terrain type
type Biome struct {
	Type      BiomeType
	Name      string
	MinHeight int
	MaxHeight int
	Variants  []BlockVariant

	MinTemp, MaxTemp   float64
	MinMoist, MaxMoist float64
}

// Biomes is the fixed biome table, indexed by BiomeType. Matching is
// first-fit in this order.
var Biomes = []Biome{
	{Type: BiomePlains, Name: "Plains", MinHeight: 40, MaxHeight: 70,
		Variants: []BlockVariant{{1.0, BlockDirt}},
		MinTemp:  0.4, MaxTemp: 0.7, MinMoist: 0.3, MaxMoist: 1.0},
	{Type: BiomeDesert, Name: "Desert", MinHeight: 30, MaxHeight: 50,
		Variants: []BlockVariant{{1.0, BlockSand}},
		MinTemp:  0.7, MaxTemp: 1.0, MinMoist: 0.0, MaxMoist: 0.3},
	{Type: BiomeMountains, Name: "Mountains", MinHeight: 80, MaxHeight: 150,
		Variants: []BlockVariant{{1.0, BlockCobblestone}},
		MinTemp:  0.0, MaxTemp: 0.4, MinMoist: 0.0, MaxMoist: 0.4},
	{Type: BiomeForest, Name: "Forest", MinHeight: 40, MaxHeight: 70,
		Variants: []BlockVariant{{1.0, BlockDirt}},
		MinTemp:  0.4, MaxTemp: 1.0, MinMoist: 0.5, MaxMoist: 1.0},
	{Type: BiomeOcean, Name: "Ocean", MinHeight: 0, MaxHeight: 20,
		Variants: []BlockVariant{{1.0, BlockWater}},
		MinTemp:  0.0, MaxTemp: 0.6, MinMoist: 0.6, MaxMoist: 1.0},
	{Type: BiomeSavana, Name: "Savana", MinHeight: 80, MaxHeight: 150,
		Variants: []BlockVariant{{1.0, BlockTerracota}},
		MinTemp:  0.7, MaxTemp: 1.0, MinMoist: 0.5, MaxMoist: 1.0},
}

// BiomeAt classifies a climate sample. Plains is the fallback.
func BiomeAt(temp, moist float64) *Biome {
	for i := range Biomes {
		b := &Biomes[i]
		if temp >= b.MinTemp && temp <= b.MaxTemp && moist >= b.MinMoist && moist <= b.MaxMoist {
			return b
		}
	}
	return &Biomes[BiomePlains]
}

// BlendedHeight mixes every biome's height range, weighting each by the
// inverse of its distance from the sample in (temperature, moisture) space.
func BlendedHeight(noiseHeight, temp, moist float64) int {
	blended := 0.0
	total := 0.0
	for i := range Biomes {
		b := &Biomes[i]
		dx := temp - (b.MinTemp+b.MaxTemp)/2
		dy := moist - (b.MinMoist+b.MaxMoist)/2
		w := 1.0 / (math.Sqrt(dx*dx+dy*dy) + 0.0001)

		h := float64(b.MinHeight) + noiseHeight*float64(b.MaxHeight-b.MinHeight)
		blended += h * w
		total += w
	}
	return int(blended / total)
}

// pick performs a cumulative draw over the variants with r in [0,1).
func (b *Biome) pick(r float64) BlockID {
	sum := 0.0
	for _, v := range b.Variants {
		sum += v.Probability
		if r <= sum {
			return v.Block
		}
	}
	return BlockAir
}
