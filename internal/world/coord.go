package world

const (
	// ChunkSize is the edge length of a cubic chunk in blocks.
	ChunkSize   = 16
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize

	keyBias = 1000000
	keyMask = 0x1FFFFF // 21 bits per axis
)

// ChunkCoord identifies a chunk in chunk units.
type ChunkCoord struct {
	X, Y, Z int
}

// Key is the packed 64-bit form of a ChunkCoord.
// Axes outside roughly ±1,000,000 wrap silently.
type Key uint64

// EncodeKey packs a chunk coordinate into a Key.
func EncodeKey(cx, cy, cz int) Key {
	ux := uint64(cx+keyBias) & keyMask
	uy := uint64(cy+keyBias) & keyMask
	uz := uint64(cz+keyBias) & keyMask
	return Key(ux<<42 | uy<<21 | uz)
}

// Decode unpacks the coordinate.
func (k Key) Decode() ChunkCoord {
	return ChunkCoord{
		X: int((uint64(k)>>42)&keyMask) - keyBias,
		Y: int((uint64(k)>>21)&keyMask) - keyBias,
		Z: int(uint64(k)&keyMask) - keyBias,
	}
}

// Key returns the packed key of c.
func (c ChunkCoord) Key() Key {
	return EncodeKey(c.X, c.Y, c.Z)
}

// Origin returns the world-space block position of the chunk's (0,0,0) voxel.
func (c ChunkCoord) Origin() (int, int, int) {
	return c.X * ChunkSize, c.Y * ChunkSize, c.Z * ChunkSize
}

// Neighbor returns the coordinate adjacent across face f.
func (c ChunkCoord) Neighbor(f Face) ChunkCoord {
	d := f.Dir()
	return ChunkCoord{X: c.X + d[0], Y: c.Y + d[1], Z: c.Z + d[2]}
}

// LocalKey packs local voxel coordinates with the same codec as chunk keys.
func LocalKey(lx, ly, lz int) uint64 {
	return uint64(EncodeKey(lx, ly, lz))
}

// DecodeLocalKey is the inverse of LocalKey.
func DecodeLocalKey(k uint64) (int, int, int) {
	c := Key(k).Decode()
	return c.X, c.Y, c.Z
}

// WorldToChunk floors a block coordinate to its chunk coordinate.
func WorldToChunk(b int) int {
	return floorDiv(b, ChunkSize)
}

// WorldToLocal returns the position of a block coordinate inside its chunk.
func WorldToLocal(b int) int {
	return mod(b, ChunkSize)
}

// BlockToChunk returns the chunk that owns world block (x, y, z).
func BlockToChunk(x, y, z int) ChunkCoord {
	return ChunkCoord{X: WorldToChunk(x), Y: WorldToChunk(y), Z: WorldToChunk(z)}
}

// floorDiv performs floor division for integers (handles negatives correctly).
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

// Face indexes the six axis-aligned directions in mesh order.
type Face int

const (
	FaceNegZ Face = iota
	FacePosZ
	FaceNegX
	FacePosX
	FacePosY
	FaceNegY
)

// AllFaces lists the faces in mesh order.
var AllFaces = [6]Face{FaceNegZ, FacePosZ, FaceNegX, FacePosX, FacePosY, FaceNegY}

var faceDirs = [6][3]int{
	{0, 0, -1},
	{0, 0, 1},
	{-1, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
}

// Dir returns the unit offset of the face.
func (f Face) Dir() [3]int {
	return faceDirs[f]
}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face {
	return f ^ 1
}

// FaceFromNormal maps a unit normal back to a face. ok is false for non-axis vectors.
func FaceFromNormal(n [3]int) (Face, bool) {
	for i, d := range faceDirs {
		if d == n {
			return Face(i), true
		}
	}
	return 0, false
}
