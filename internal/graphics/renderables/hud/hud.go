package hud

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/graphics"
	"voxelstream/internal/graphics/atlas"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/profiling"
)

const (
	textScale = 1.0
	marginX   = 10
	marginY   = 24
)

// HUD draws the debug overlay text and counts frames per second.
type HUD struct {
	glyphs       *atlas.Glyphs
	fontRenderer *graphics.FontRenderer
	prof         *profiling.Profiler
	width        int
	height       int
	show         bool

	frames       int
	lastFPSCheck time.Time
	currentFPS   int
}

// NewHUD creates a new HUD renderable
func NewHUD(glyphs *atlas.Glyphs, width, height int, prof *profiling.Profiler) *HUD {
	return &HUD{
		glyphs: glyphs,
		prof:   prof,
		width:  width,
		height: height,
		show:   true,
	}
}

// Init uploads the glyph atlas.
func (h *HUD) Init() error {
	fr, err := graphics.NewFontRenderer(h.glyphs, h.width, h.height)
	if err != nil {
		return err
	}
	h.fontRenderer = fr
	h.lastFPSCheck = time.Now()
	return nil
}

// Render renders the HUD elements
func (h *HUD) Render(ctx renderer.RenderContext) {
	h.frames++
	if time.Since(h.lastFPSCheck) >= time.Second {
		h.currentFPS = h.frames
		h.lastFPSCheck = time.Now()
		h.frames = 0
	}
	if !h.show || len(ctx.Overlay) == 0 {
		return
	}
	defer h.prof.Track("renderer.hud")()
	step := h.fontRenderer.LineHeight() * textScale
	h.fontRenderer.RenderLines(ctx.Overlay, marginX, marginY, step, textScale, mgl32.Vec3{1, 1, 1})
}

// SetViewport keeps text in pixel coordinates after a resize.
func (h *HUD) SetViewport(width, height int) {
	h.width, h.height = width, height
	if h.fontRenderer != nil {
		h.fontRenderer.SetViewport(width, height)
	}
}

// Dispose cleans up resources
func (h *HUD) Dispose() {
	if h.fontRenderer != nil {
		h.fontRenderer.Dispose()
	}
}

// FPS returns the frame count of the last full second.
func (h *HUD) FPS() int {
	return h.currentFPS
}

// Toggle toggles overlay visibility
func (h *HUD) Toggle() {
	h.show = !h.show
}

// Visible returns whether the overlay is shown
func (h *HUD) Visible() bool {
	return h.show
}
