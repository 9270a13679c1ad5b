package main

import (
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/input"
	"voxelstream/internal/observer"
)

// GameLoop manages the main game loop state
type GameLoop struct {
	window   *glfw.Window
	sess     *game.Session
	comps    *Components
	input    *input.InputManager
	observer *observer.Observer

	paused     bool
	fpsLimiter *game.FPSLimiter
	lastTime   time.Time
}

// NewGameLoop creates a new game loop with all components
func NewGameLoop(window *glfw.Window, sess *game.Session, comps *Components, cfg config.Config) *GameLoop {
	return &GameLoop{
		window:     window,
		sess:       sess,
		comps:      comps,
		input:      input.NewInputManager(),
		observer:   observer.New(sess.Spawn()),
		fpsLimiter: game.NewFPSLimiter(cfg.Window.FPSCap),
		lastTime:   time.Now(),
	}
}

// Run ticks until the window is closed.
func (gl *GameLoop) Run() {
	// Size the viewport from the framebuffer, which differs from the
	// window size on high-DPI displays.
	gl.comps.Renderer.UpdateViewport(gl.window.GetFramebufferSize())
	for !gl.window.ShouldClose() {
		gl.tick()
	}
}

func (gl *GameLoop) tick() {
	gl.sess.Prof.ResetFrame()
	now := time.Now()
	dt := now.Sub(gl.lastTime).Seconds()
	gl.lastTime = now
	// Long stalls (window drags, breakpoints) would tunnel through terrain.
	if dt > 0.1 {
		dt = 0.1
	}

	func() { defer gl.sess.Prof.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	if !gl.paused {
		func() {
			defer gl.sess.Prof.Track("observer.Move")()
			gl.observer.Move(dt, gl.input.Intent(), gl.sess.Store)
		}()
	}

	// Streaming keeps running while paused so the world finishes loading.
	f := gl.sess.Tick(gl.observer.Eye(), gl.observer.Front())
	gl.comps.Blocks.Evict(f.Evicted)
	gl.comps.Blocks.Apply(f.Meshes)

	gl.handleInputActions()

	gl.renderFrame()

	func() { defer gl.sess.Prof.Track("glfw.SwapBuffers")(); gl.window.SwapBuffers() }()

	// Clear edge flags at end of frame
	gl.input.PostUpdate()

	gl.fpsLimiter.Wait()
}

func (gl *GameLoop) handleInputActions() {
	im := gl.input

	if im.JustPressed(input.ActionPause) {
		gl.paused = !gl.paused
		if gl.paused {
			gl.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		} else {
			gl.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			gl.observer.ResetCursor()
		}
	}
	if gl.paused {
		return
	}

	if slot, ok := im.HotbarSlot(); ok {
		gl.sess.Edit.SelectSlot(slot)
	}
	if s := im.Scroll(); s != 0 {
		// Wheel up moves left along the hotbar.
		if s > 0 {
			gl.sess.Edit.Scroll(-1)
		} else {
			gl.sess.Edit.Scroll(1)
		}
	}

	if im.JustPressed(input.ActionBreak) {
		gl.sess.Break()
	}
	if im.JustPressed(input.ActionPlace) {
		gl.sess.Place(gl.observer.Position)
	}
	if im.JustPressed(input.ActionPick) {
		gl.sess.Pick()
	}

	if im.JustPressed(input.ActionToggleFly) {
		gl.observer.Flying = !gl.observer.Flying
	}
	if im.JustPressed(input.ActionToggleWireframe) {
		gl.comps.Blocks.SetWireframe(!gl.comps.Blocks.Wireframe())
	}
	if im.JustPressed(input.ActionToggleOverlay) {
		gl.comps.HUD.Toggle()
	}
}

func (gl *GameLoop) renderFrame() {
	var overlay []string
	if gl.comps.HUD.Visible() {
		overlay = gl.sess.Overlay(gl.observer.Position, gl.comps.HUD.FPS())
		if gl.paused {
			overlay = append(overlay, "", "PAUSED - press Esc to resume")
		}
	}
	gl.comps.Renderer.Render(gl.observer.ViewMatrix(), gl.observer.Eye(), gl.sess.Aim(), overlay)
}

// RefreshRender renders a frame without updating game state (used during window resize)
func (gl *GameLoop) RefreshRender() {
	gl.renderFrame()
	gl.window.SwapBuffers()
}
