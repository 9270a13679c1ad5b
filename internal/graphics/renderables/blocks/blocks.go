// Package blocks draws the chunk meshes produced by the streaming core.
// Each chunk owns its own vertex array; meshes arrive through Apply and
// leave through Evict, always on the render thread.
package blocks

import (
	_ "embed"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/graphics"
	"voxelstream/internal/graphics/frustum"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/meshing"
	"voxelstream/internal/profiling"
	"voxelstream/internal/world"
)

var (
	//go:embed shaders/chunk.vert
	chunkVertSrc string
	//go:embed shaders/chunk.frag
	chunkFragSrc string
)

// frustumMargin pads chunk bounds so edge chunks don't pop.
const frustumMargin = 1.0

type chunkMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
	origin        mgl32.Vec3
}

// Stats counts the meshes drawn in the last frame.
type Stats struct {
	Meshes  int
	Visible int
	Culled  int
}

// Blocks implements block rendering feature
type Blocks struct {
	shader  *graphics.Shader
	atlas   *image.RGBA
	texture uint32
	prof    *profiling.Profiler

	meshes    map[world.Key]*chunkMesh
	wireframe bool
	fogStart  float32
	fogEnd    float32
	stats     Stats
}

// NewBlocks creates a blocks renderable texturing chunks with atlas. Fog
// fades geometry out between fogStart and fogEnd world units.
func NewBlocks(atlas *image.RGBA, fogStart, fogEnd float32, prof *profiling.Profiler) *Blocks {
	return &Blocks{
		atlas:    atlas,
		prof:     prof,
		meshes:   make(map[world.Key]*chunkMesh),
		fogStart: fogStart,
		fogEnd:   fogEnd,
	}
}

// Init compiles the chunk shader and uploads the atlas.
func (b *Blocks) Init() error {
	var err error
	b.shader, err = graphics.NewShader(chunkVertSrc, chunkFragSrc)
	if err != nil {
		return err
	}
	b.texture = graphics.UploadTexture(b.atlas)
	b.shader.Use()
	b.shader.SetInt("atlas", 0)
	return nil
}

// SetWireframe toggles line rendering.
func (b *Blocks) SetWireframe(on bool) { b.wireframe = on }

// Wireframe reports whether line rendering is on.
func (b *Blocks) Wireframe() bool { return b.wireframe }

// SetViewport is a no-op; chunk rendering depends only on the camera.
func (b *Blocks) SetViewport(width, height int) {}

// Len returns the number of chunks with GPU geometry.
func (b *Blocks) Len() int { return len(b.meshes) }

// Stats returns the counters of the last rendered frame.
func (b *Blocks) Stats() Stats { return b.stats }

// Apply uploads finished meshes. An empty mesh frees the chunk's geometry.
func (b *Blocks) Apply(results []meshing.MeshResult) {
	if len(results) == 0 {
		return
	}
	defer b.prof.Track("renderer.blocks.Apply")()
	for _, r := range results {
		if r.Mesh.Empty() {
			b.free(r.Key)
			continue
		}
		m := b.meshes[r.Key]
		if m == nil {
			m = newChunkMesh()
			b.meshes[r.Key] = m
		}
		m.upload(r.Mesh)
	}
}

// Evict frees the geometry of chunks that left the resident set.
func (b *Blocks) Evict(keys []world.Key) {
	for _, k := range keys {
		b.free(k)
	}
}

func (b *Blocks) free(k world.Key) {
	m, ok := b.meshes[k]
	if !ok {
		return
	}
	m.delete()
	delete(b.meshes, k)
}

// Render draws every chunk that intersects the view frustum.
func (b *Blocks) Render(ctx renderer.RenderContext) {
	defer b.prof.Track("renderer.renderBlocks")()

	if b.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	b.shader.Use()
	b.shader.SetMatrix4("proj", &ctx.Proj[0])
	b.shader.SetMatrix4("view", &ctx.View[0])
	b.shader.SetVector3("fogColor", renderer.SkyColor.X(), renderer.SkyColor.Y(), renderer.SkyColor.Z())
	b.shader.SetFloat("fogStart", b.fogStart)
	b.shader.SetFloat("fogEnd", b.fogEnd)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)

	f := frustum.FromMatrix(ctx.Proj.Mul4(ctx.View))
	stats := Stats{Meshes: len(b.meshes)}
	for _, m := range b.meshes {
		if !f.IntersectsCube(m.origin, world.ChunkSize, frustumMargin) {
			stats.Culled++
			continue
		}
		stats.Visible++
		b.shader.SetVector3("origin", m.origin.X(), m.origin.Y(), m.origin.Z())
		gl.BindVertexArray(m.vao)
		gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
	b.stats = stats
}

// Dispose cleans up OpenGL resources
func (b *Blocks) Dispose() {
	for k, m := range b.meshes {
		m.delete()
		delete(b.meshes, k)
	}
	graphics.DeleteTexture(b.texture)
	b.texture = 0
	if b.shader != nil {
		b.shader.Delete()
	}
}

func newChunkMesh() *chunkMesh {
	m := &chunkMesh{}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	stride := int32(meshing.VertexStride * 4)
	// aPos
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	// aUV
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
	// aLight, the low byte of the last word normalized to [0,1]
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 1, gl.UNSIGNED_BYTE, true, stride, 5*4)
	gl.BindVertexArray(0)
	return m
}

func (m *chunkMesh) upload(data meshing.MeshData) {
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*4, gl.Ptr(data.Vertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	m.indexCount = int32(len(data.Indices))
	m.origin = mgl32.Vec3{data.Origin[0], data.Origin[1], data.Origin[2]}
}

func (m *chunkMesh) delete() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}
