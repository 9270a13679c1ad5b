package meshing

import (
	"math"

	"voxelstream/internal/world"
)

// VertexStride is the number of 32-bit words per vertex: pos.xyz and uv as
// float32, then one word whose low byte is the packed light level.
const VertexStride = 6

// Face light levels as unsigned normalized bytes.
const (
	lightTop    uint8 = 255
	lightSideZ  uint8 = 204
	lightSideX  uint8 = 179
	lightBottom uint8 = 128
)

// PackedLight extracts the light byte from a vertex's light word.
func PackedLight(word float32) uint8 {
	return uint8(math.Float32bits(word))
}

// Atlas describes the block texture atlas: one row per block id, three
// columns (side, bottom, top) of square tiles.
type Atlas struct {
	Width, Height float32
	Tile          float32
}

// DefaultAtlas matches the bundled blocks.png.
var DefaultAtlas = Atlas{Width: 96, Height: 1048, Tile: 32}

type faceRole int

const (
	roleSide faceRole = iota
	roleBottom
	roleTop
)

// Quad corners per face, in face order -Z, +Z, -X, +X, +Y, -Y.
var faceVerts = [6][4][3]float32{
	{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	{{1, 0, 1}, {0, 0, 1}, {0, 1, 1}, {1, 1, 1}},
	{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}},
	{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}},
	{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}},
	{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}},
}

var quadIndices = [6]uint32{0, 2, 1, 0, 3, 2}

// MeshData is the geometry of one chunk. Vertex positions are relative to
// Origin. Blocks are centred on integer coordinates, so Origin is the
// chunk's first block position shifted by -0.5 on each axis.
type MeshData struct {
	Coord    world.ChunkCoord
	Origin   [3]float32
	Vertices []float32
	Indices  []uint32
}

// Empty reports whether the chunk produced no faces.
func (m MeshData) Empty() bool {
	return len(m.Indices) == 0
}

// FaceCount returns the number of emitted quads.
func (m MeshData) FaceCount() int {
	return len(m.Indices) / 6
}

func faceRoleFor(f world.Face, rot world.Rotation) faceRole {
	top, bottom := world.FacePosY, world.FaceNegY
	switch rot {
	case world.RotationX:
		top, bottom = world.FacePosX, world.FaceNegX
	case world.RotationZ:
		top, bottom = world.FacePosZ, world.FaceNegZ
	}
	switch f {
	case top:
		return roleTop
	case bottom:
		return roleBottom
	}
	return roleSide
}

func lightFor(f world.Face, role faceRole) uint8 {
	switch role {
	case roleTop:
		return lightTop
	case roleBottom:
		return lightBottom
	}
	if f == world.FaceNegX || f == world.FacePosX {
		return lightSideX
	}
	return lightSideZ
}

// faceUVs returns the atlas coordinates of a face's four corners.
func (a Atlas) faceUVs(id world.BlockID, f world.Face, rot world.Rotation, role faceRole) [4][2]float32 {
	row := float32(int(id)-1) * a.Tile
	col := float32(0)
	switch role {
	case roleBottom:
		col = a.Tile
	case roleTop:
		col = 2 * a.Tile
	}
	u0, u1 := col/a.Width, (col+a.Tile)/a.Width
	v0, v1 := row/a.Height, (row+a.Tile)/a.Height

	uv := [4][2]float32{{u0, v1}, {u1, v1}, {u1, v0}, {u0, v0}}

	turns := 0
	if f == world.FaceNegX {
		turns++
	}
	if role == roleSide && (rot == world.RotationX || rot == world.RotationZ) {
		turns++
	}
	for ; turns > 0; turns-- {
		uv = [4][2]float32{uv[1], uv[2], uv[3], uv[0]}
	}
	return uv
}

// Build emits one quad for every solid voxel face whose neighbour is air.
// Neighbours across the chunk border come from neighbors (indexed by
// world.Face); a nil neighbour reads as air.
func Build(c *world.Chunk, neighbors [6]*world.Chunk, atlas Atlas) MeshData {
	if c == nil {
		return MeshData{}
	}
	ox, oy, oz := c.Origin()
	mesh := MeshData{
		Coord:  c.Coord,
		Origin: [3]float32{float32(ox) - 0.5, float32(oy) - 0.5, float32(oz) - 0.5},
	}

	blocks := c.Snapshot()
	at := func(x, y, z int) world.BlockData {
		return blocks[x+y*world.ChunkSize+z*world.ChunkSize*world.ChunkSize]
	}
	// neighbour voxel of (x,y,z) across face f
	across := func(x, y, z int, f world.Face) world.BlockData {
		d := f.Dir()
		nx, ny, nz := x+d[0], y+d[1], z+d[2]
		if nx >= 0 && nx < world.ChunkSize && ny >= 0 && ny < world.ChunkSize && nz >= 0 && nz < world.ChunkSize {
			return at(nx, ny, nz)
		}
		n := neighbors[f]
		if n == nil {
			return world.BlockData{}
		}
		return n.Block(world.WorldToLocal(nx), world.WorldToLocal(ny), world.WorldToLocal(nz))
	}

	for z := 0; z < world.ChunkSize; z++ {
		for y := 0; y < world.ChunkSize; y++ {
			for x := 0; x < world.ChunkSize; x++ {
				b := at(x, y, z)
				if b.IsAir() {
					continue
				}
				for _, f := range world.AllFaces {
					if !across(x, y, z, f).IsAir() {
						continue
					}
					mesh.appendFace(x, y, z, b, f, atlas)
				}
			}
		}
	}
	return mesh
}

func (m *MeshData) appendFace(x, y, z int, b world.BlockData, f world.Face, atlas Atlas) {
	role := faceRoleFor(f, b.Rotation)
	uv := atlas.faceUVs(b.ID, f, b.Rotation, role)
	// The light byte travels in the word's bits, not as a float value.
	light := math.Float32frombits(uint32(lightFor(f, role)))

	base := uint32(len(m.Vertices) / VertexStride)
	for i, v := range faceVerts[f] {
		m.Vertices = append(m.Vertices,
			float32(x)+v[0], float32(y)+v[1], float32(z)+v[2],
			uv[i][0], uv[i][1],
			light,
		)
	}
	for _, idx := range quadIndices {
		m.Indices = append(m.Indices, base+idx)
	}
}
