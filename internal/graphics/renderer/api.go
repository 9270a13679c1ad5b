package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/graphics"
	"voxelstream/internal/physics"
)

// RenderContext provides shared context for all renderables
type RenderContext struct {
	Camera *graphics.Camera
	View   mgl32.Mat4
	Proj   mgl32.Mat4
	Eye    mgl32.Vec3
	// Aim is the block under the crosshair.
	Aim physics.Hit
	// Overlay holds debug text lines, top-left.
	Overlay []string
}

// Renderable interface defines the lifecycle for renderable features
type Renderable interface {
	Init() error
	Render(ctx RenderContext)
	Dispose()
	SetViewport(width, height int)
}
