package world

// BlockID identifies a material. Zero is air.
type BlockID uint8

const (
	BlockAir BlockID = iota
	BlockDirt
	BlockGrass
	BlockCobblestone
	BlockStone
	BlockSand
	BlockWater
	BlockTerracota
	BlockCoalOre
	BlockIronOre
	BlockGoldOre
	BlockDiamondOre
	BlockDarkStone
	BlockDarkCoalOre
	BlockDarkIronOre
	BlockDarkGoldOre
	BlockDarkDiamondOre
	BlockOak

	// BlockCount is one past the highest valid id.
	BlockCount
)

// Valid reports whether id is a known material (air included).
func (id BlockID) Valid() bool {
	return id < BlockCount
}

// Rotation records the axis of oriented blocks such as logs.
type Rotation uint8

const (
	RotationNone Rotation = iota
	// RotationY is an upright log placed against a top or bottom face.
	RotationY
	// RotationX lies along the X axis.
	RotationX
	// RotationZ lies along the Z axis.
	RotationZ

	rotationCount
)

// Valid reports whether r is a known rotation.
func (r Rotation) Valid() bool {
	return r < rotationCount
}

// RotationForNormal derives a log axis from the face normal it was placed on.
func RotationForNormal(n [3]int) Rotation {
	switch {
	case n[0] != 0:
		return RotationX
	case n[2] != 0:
		return RotationZ
	case n[1] != 0:
		return RotationY
	}
	return RotationNone
}

// BlockData is the per-voxel state. The zero value is air.
type BlockData struct {
	ID       BlockID
	Rotation Rotation
}

// IsAir reports whether the voxel is empty.
func (b BlockData) IsAir() bool {
	return b.ID == BlockAir
}
