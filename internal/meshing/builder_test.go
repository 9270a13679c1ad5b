package meshing

import (
	"math"
	"testing"

	"voxelstream/internal/world"
)

func TestSingleBlockMesh(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(3, 4, 5, world.BlockData{ID: world.BlockStone})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)

	if got := len(m.Vertices) / VertexStride; got != 24 {
		t.Errorf("single block: got %d vertices, want 24", got)
	}
	if len(m.Indices) != 36 {
		t.Errorf("single block: got %d indices, want 36", len(m.Indices))
	}
}

func TestTwoBlocksTouching(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockDirt})
	c.SetGenerated(1, 0, 0, world.BlockData{ID: world.BlockDirt})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)
	if m.FaceCount() != 10 {
		t.Fatalf("two touching blocks: got %d faces, want 10", m.FaceCount())
	}
}

func TestTwoBlocksSeparated(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockDirt})
	c.SetGenerated(2, 0, 0, world.BlockData{ID: world.BlockDirt})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)
	if m.FaceCount() != 12 {
		t.Fatalf("two separated blocks: got %d faces, want 12", m.FaceCount())
	}
}

func TestCrossChunkFaceCulling(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(world.ChunkSize-1, 0, 0, world.BlockData{ID: world.BlockStone})
	east := world.NewChunk(1, 0, 0)
	east.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockStone})

	var ns [6]*world.Chunk
	ns[world.FacePosX] = east
	m := Build(c, ns, DefaultAtlas)
	if m.FaceCount() != 5 {
		t.Fatalf("cross-chunk culling: got %d faces, want 5", m.FaceCount())
	}

	// Without the neighbour the border face is emitted.
	if m := Build(c, [6]*world.Chunk{}, DefaultAtlas); m.FaceCount() != 6 {
		t.Fatalf("missing neighbour should read as air, got %d faces", m.FaceCount())
	}
}

func TestFullChunkOnlyShell(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	for z := 0; z < world.ChunkSize; z++ {
		for y := 0; y < world.ChunkSize; y++ {
			for x := 0; x < world.ChunkSize; x++ {
				c.SetGenerated(x, y, z, world.BlockData{ID: world.BlockStone})
			}
		}
	}
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)
	want := 6 * world.ChunkSize * world.ChunkSize
	if m.FaceCount() != want {
		t.Errorf("solid chunk: got %d faces, want %d", m.FaceCount(), want)
	}
}

func TestEmptyChunk(t *testing.T) {
	m := Build(world.NewChunk(2, 2, 2), [6]*world.Chunk{}, DefaultAtlas)
	if !m.Empty() {
		t.Errorf("Expected no geometry for an empty chunk")
	}
	if m.Origin != [3]float32{31.5, 31.5, 31.5} {
		t.Errorf("Unexpected origin %v", m.Origin)
	}
}

// vertex returns the i-th vertex of m.
func vertex(m MeshData, i int) []float32 {
	return m.Vertices[i*VertexStride : (i+1)*VertexStride]
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

// lightOf returns the vertex light as the shader sees it.
func lightOf(v []float32) float32 {
	return float32(PackedLight(v[5])) / 255
}

func approxLight(a, b float32) bool {
	return math.Abs(float64(a-b)) <= 1.0/255
}

func TestFaceOrderAndLight(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockGrass})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)

	wantLight := []float32{0.8, 0.8, 0.7, 0.7, 1.0, 0.5}
	for f, want := range wantLight {
		if got := lightOf(vertex(m, f*4)); !approxLight(got, want) {
			t.Errorf("face %d: light %v, want %v", f, got, want)
		}
	}

	// -Z face starts at the origin corner, +Y face at y=1.
	if v := vertex(m, 0); v[0] != 0 || v[1] != 0 || v[2] != 0 {
		t.Errorf("-Z first corner = %v", v[:3])
	}
	if v := vertex(m, 16); v[1] != 1 {
		t.Errorf("+Y first corner = %v", v[:3])
	}

	want := []uint32{0, 2, 1, 0, 3, 2}
	for i, idx := range want {
		if m.Indices[i] != idx {
			t.Fatalf("index pattern %v, want %v", m.Indices[:6], want)
		}
	}
	if m.Indices[6] != 4 {
		t.Errorf("second quad should start at vertex 4, got %d", m.Indices[6])
	}
}

func TestAtlasTiles(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockGrass})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)
	a := DefaultAtlas
	row := float32(world.BlockGrass-1) * a.Tile

	// -Z side: u0 at column 0, v1 at the bottom of the row.
	v := vertex(m, 0)
	if !approx(v[3], 0) || !approx(v[4], (row+a.Tile)/a.Height) {
		t.Errorf("-Z uv = %v,%v", v[3], v[4])
	}
	// +Y top column.
	top := vertex(m, 16)
	if !approx(top[3], 2*a.Tile/a.Width) {
		t.Errorf("+Y u0 = %v, want top column", top[3])
	}
	// -Y bottom column.
	bot := vertex(m, 20)
	if !approx(bot[3], a.Tile/a.Width) {
		t.Errorf("-Y u0 = %v, want bottom column", bot[3])
	}
	// -X is rotated by one corner: its first vertex takes the second uv.
	nx := vertex(m, 8)
	if !approx(nx[3], a.Tile/a.Width) || !approx(nx[4], (row+a.Tile)/a.Height) {
		t.Errorf("-X first uv = %v,%v", nx[3], nx[4])
	}
}

func TestLightIsPackedIntoLowByte(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockStone})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)
	for i := 0; i < len(m.Vertices)/VertexStride; i++ {
		if bits := math.Float32bits(vertex(m, i)[5]); bits > 0xFF {
			t.Fatalf("vertex %d: light word %#x uses more than one byte", i, bits)
		}
	}
	if got := PackedLight(vertex(m, 16)[5]); got != 255 {
		t.Errorf("top light byte = %d, want 255", got)
	}
}

func TestRotatedLogRoles(t *testing.T) {
	c := world.NewChunk(0, 0, 0)
	c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockOak, Rotation: world.RotationX})
	m := Build(c, [6]*world.Chunk{}, DefaultAtlas)

	// +X becomes the top face of an X-axis log.
	if l := lightOf(vertex(m, 12)); !approxLight(l, 1.0) {
		t.Errorf("+X light of X log = %v, want 1.0", l)
	}
	if l := lightOf(vertex(m, 8)); !approxLight(l, 0.5) {
		t.Errorf("-X light of X log = %v, want 0.5", l)
	}
	// +Y is now a side.
	if l := lightOf(vertex(m, 16)); !approxLight(l, 0.8) {
		t.Errorf("+Y light of X log = %v, want 0.8", l)
	}
	if u := vertex(m, 12)[3]; !approx(u, 2*DefaultAtlas.Tile/DefaultAtlas.Width) {
		t.Errorf("+X of X log should sample the top column, u0 = %v", u)
	}
}
