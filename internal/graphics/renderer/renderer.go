package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/graphics"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
)

// SkyColor clears the frame and tints distant fog.
var SkyColor = mgl32.Vec3{0.53, 0.81, 0.92}

// Renderer orchestrates rendering via renderable features
type Renderer struct {
	renderables []Renderable
	camera      *graphics.Camera
	prof        *profiling.Profiler
}

// NewRenderer configures GL state and initializes every renderable in order.
func NewRenderer(camera *graphics.Camera, prof *profiling.Profiler, rs ...Renderable) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	r := &Renderer{
		renderables: rs,
		camera:      camera,
		prof:        prof,
	}
	for i, rb := range rs {
		if err := rb.Init(); err != nil {
			// Dispose what was already set up.
			for j := i - 1; j >= 0; j-- {
				rs[j].Dispose()
			}
			return nil, err
		}
	}
	return r, nil
}

// Render draws one frame seen from eye through view.
func (r *Renderer) Render(view mgl32.Mat4, eye mgl32.Vec3, aim physics.Hit, overlay []string) {
	defer r.prof.Track("renderer.Render")()

	gl.ClearColor(SkyColor.X(), SkyColor.Y(), SkyColor.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	ctx := RenderContext{
		Camera:  r.camera,
		View:    view,
		Proj:    r.camera.ProjectionMatrix(),
		Eye:     eye,
		Aim:     aim,
		Overlay: overlay,
	}
	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
}

// Dispose cleans up all renderables in reverse order
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}

// Camera returns the camera instance
func (r *Renderer) Camera() *graphics.Camera {
	return r.camera
}

// UpdateViewport updates the GL viewport, the camera and every renderable.
func (r *Renderer) UpdateViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	r.camera.SetViewport(width, height)
	for _, rb := range r.renderables {
		rb.SetViewport(width, height)
	}
}
