// Package input maps GLFW keys and buttons to viewer actions.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"voxelstream/internal/observer"
)

// Action represents a logical game action, not a physical key
type Action int

// Action constants using iota
const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionJump
	ActionSprint
	ActionDescend
	ActionToggleFly
	ActionPause
	ActionHotbar1
	ActionHotbar2
	ActionHotbar3
	ActionHotbar4
	ActionHotbar5
	ActionHotbar6
	ActionHotbar7
	ActionHotbar8
	ActionHotbar9
	ActionToggleWireframe
	ActionToggleOverlay
	ActionBreak
	ActionPlace
	ActionPick
	ActionCount // Sentinel value for array sizing
)

// InputManager manages keyboard and mouse input state and maps physical keys/buttons to logical actions
type InputManager struct {
	mu sync.RWMutex

	// Key to action mapping (one key can map to multiple actions)
	keyToActions map[glfw.Key][]Action

	// Mouse button to action mapping
	mouseButtonToActions map[glfw.MouseButton][]Action

	// Current frame state (indexed by Action)
	currentState [ActionCount]bool

	// Just pressed/released flags (reset each frame)
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	scroll float64
}

// NewInputManager creates a new InputManager with default key bindings
func NewInputManager() *InputManager {
	im := &InputManager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
	}

	im.BindKey(glfw.KeyW, ActionMoveForward)
	im.BindKey(glfw.KeyS, ActionMoveBackward)
	im.BindKey(glfw.KeyA, ActionMoveLeft)
	im.BindKey(glfw.KeyD, ActionMoveRight)
	im.BindKey(glfw.KeyUp, ActionMoveForward)
	im.BindKey(glfw.KeyDown, ActionMoveBackward)
	im.BindKey(glfw.KeyLeft, ActionMoveLeft)
	im.BindKey(glfw.KeyRight, ActionMoveRight)
	im.BindKey(glfw.KeySpace, ActionJump)
	im.BindKey(glfw.KeyLeftControl, ActionSprint)
	im.BindKey(glfw.KeyLeftShift, ActionDescend)
	im.BindKey(glfw.KeyG, ActionToggleFly)
	im.BindKey(glfw.KeyEscape, ActionPause)
	im.BindKey(glfw.Key1, ActionHotbar1)
	im.BindKey(glfw.Key2, ActionHotbar2)
	im.BindKey(glfw.Key3, ActionHotbar3)
	im.BindKey(glfw.Key4, ActionHotbar4)
	im.BindKey(glfw.Key5, ActionHotbar5)
	im.BindKey(glfw.Key6, ActionHotbar6)
	im.BindKey(glfw.Key7, ActionHotbar7)
	im.BindKey(glfw.Key8, ActionHotbar8)
	im.BindKey(glfw.Key9, ActionHotbar9)
	im.BindKey(glfw.KeyF, ActionToggleWireframe)
	im.BindKey(glfw.KeyV, ActionToggleOverlay)

	im.BindMouseButton(glfw.MouseButtonLeft, ActionBreak)
	im.BindMouseButton(glfw.MouseButtonRight, ActionPlace)
	im.BindMouseButton(glfw.MouseButtonMiddle, ActionPick)

	return im
}

// BindKey binds a physical key to a logical action
// Multiple keys can be bound to the same action (e.g., WASD and arrow keys)
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if action < 0 || action >= ActionCount {
		return
	}

	im.keyToActions[key] = append(im.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key
func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.keyToActions, key)
}

// BindMouseButton binds a mouse button to a logical action
func (im *InputManager) BindMouseButton(button glfw.MouseButton, action Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if action < 0 || action >= ActionCount {
		return
	}

	im.mouseButtonToActions[button] = append(im.mouseButtonToActions[button], action)
}

// UnbindMouseButton removes all action bindings for a mouse button
func (im *InputManager) UnbindMouseButton(button glfw.MouseButton) {
	im.mu.Lock()
	defer im.mu.Unlock()

	delete(im.mouseButtonToActions, button)
}

// HandleKeyEvent processes a key event and updates internal state
// This can be called from a custom key callback
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.RLock()
	actions, exists := im.keyToActions[key]
	im.mu.RUnlock()

	if !exists {
		return
	}

	isPressed := action == glfw.Press || action == glfw.Repeat

	im.mu.Lock()
	for _, act := range actions {
		if act >= 0 && act < ActionCount {
			// Detect edges immediately when event arrives
			if isPressed && !im.currentState[act] {
				im.justPressed[act] = true
			}
			if !isPressed && im.currentState[act] {
				im.justReleased[act] = true
			}
			im.currentState[act] = isPressed
		}
	}
	im.mu.Unlock()
}

// HandleMouseButtonEvent processes a mouse button event and updates internal state
// This can be called from a custom mouse button callback
func (im *InputManager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	im.mu.RLock()
	actions, exists := im.mouseButtonToActions[button]
	im.mu.RUnlock()

	if !exists {
		return
	}

	isPressed := action == glfw.Press

	im.mu.Lock()
	for _, act := range actions {
		if act >= 0 && act < ActionCount {
			// Detect edges immediately when event arrives
			if isPressed && !im.currentState[act] {
				im.justPressed[act] = true
			}
			if !isPressed && im.currentState[act] {
				im.justReleased[act] = true
			}
			im.currentState[act] = isPressed
		}
	}
	im.mu.Unlock()
}

// HandleScroll accumulates wheel movement until the next PostUpdate.
func (im *InputManager) HandleScroll(yoff float64) {
	im.mu.Lock()
	im.scroll += yoff
	im.mu.Unlock()
}

// Scroll returns the wheel movement of the current frame.
func (im *InputManager) Scroll() float64 {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.scroll
}

// Attach installs the key, mouse button and scroll callbacks on window.
// This should be called once during initialization
func (im *InputManager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		im.HandleScroll(yoff)
	})
}

// HotbarSlot returns the slot whose number key was pressed this frame.
func (im *InputManager) HotbarSlot() (int, bool) {
	for i := 0; i < 9; i++ {
		if im.JustPressed(ActionHotbar1 + Action(i)) {
			return i, true
		}
	}
	return 0, false
}

// Intent converts the held movement actions into an observer intent.
func (im *InputManager) Intent() observer.Intent {
	var in observer.Intent
	if im.IsActive(ActionMoveForward) {
		in.Forward++
	}
	if im.IsActive(ActionMoveBackward) {
		in.Forward--
	}
	if im.IsActive(ActionMoveRight) {
		in.Strafe++
	}
	if im.IsActive(ActionMoveLeft) {
		in.Strafe--
	}
	in.Jump = im.IsActive(ActionJump)
	in.Up = in.Jump
	in.Down = im.IsActive(ActionDescend)
	in.Sprint = im.IsActive(ActionSprint)
	return in
}

// PostUpdate must be called at the end of each frame to update edge detection states
// This should be called after all input checks are done
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()

	for i := range ActionCount {
		im.justPressed[i] = false
		im.justReleased[i] = false
	}
	im.scroll = 0
}

// IsActive returns true if the action is currently being held down
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.currentState[action]
}

// JustPressed returns true only if the action was pressed in the current frame
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.justPressed[action]
}

// JustReleased returns true only if the action was released in the current frame
func (im *InputManager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}

	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.justReleased[action]
}
