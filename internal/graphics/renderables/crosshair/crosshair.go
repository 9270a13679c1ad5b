package crosshair

import (
	_ "embed"

	"github.com/go-gl/gl/v4.1-core/gl"

	"voxelstream/internal/graphics"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/profiling"
)

var (
	//go:embed shaders/crosshair.vert
	vertSrc string
	//go:embed shaders/crosshair.frag
	fragSrc string
)

// Two line segments in clip space, corrected for aspect in the shader.
var vertices = []float32{
	-0.02, 0.0,
	0.02, 0.0,
	0.0, -0.02,
	0.0, 0.02,
}

// Crosshair implements crosshair rendering
type Crosshair struct {
	shader *graphics.Shader
	prof   *profiling.Profiler
	vao    uint32
	vbo    uint32
}

// NewCrosshair creates a new crosshair renderable
func NewCrosshair(prof *profiling.Profiler) *Crosshair {
	return &Crosshair{prof: prof}
}

// Init initializes the crosshair rendering system
func (c *Crosshair) Init() error {
	// Create shader
	var err error
	c.shader, err = graphics.NewShader(vertSrc, fragSrc)
	if err != nil {
		return err
	}

	// Setup VAO and VBO
	c.setupCrosshairVAO()

	return nil
}

// Render renders the crosshair
func (c *Crosshair) Render(ctx renderer.RenderContext) {
	defer c.prof.Track("renderer.renderCrosshair")()
	c.renderCrosshair(ctx.Camera.AspectRatio)
}

// SetViewport is a no-op; aspect comes from the camera each frame.
func (c *Crosshair) SetViewport(width, height int) {}

// Dispose cleans up OpenGL resources
func (c *Crosshair) Dispose() {
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
	}
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
	}
	if c.shader != nil {
		c.shader.Delete()
	}
}

func (c *Crosshair) setupCrosshairVAO() {
	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
}

func (c *Crosshair) renderCrosshair(aspectRatio float32) {
	c.shader.Use()
	c.shader.SetFloat("aspectRatio", aspectRatio)

	gl.BindVertexArray(c.vao)
	gl.LineWidth(1.0)
	gl.DrawArrays(gl.LINES, 0, 4)
}
