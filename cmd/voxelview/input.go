package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const mouseSensitivity = 0.1

func setupInputHandlers(window *glfw.Window, loop *GameLoop) {
	loop.input.Attach(window)

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !loop.paused {
			loop.observer.HandleCursor(xpos, ypos, mouseSensitivity)
		}
	})

	// Framebuffer size callback
	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		loop.comps.Renderer.UpdateViewport(fbWidth, fbHeight)
	})

	// Refresh callback (called during window resize to prevent visual glitches)
	window.SetRefreshCallback(func(w *glfw.Window) {
		loop.RefreshRender()
	})
}
