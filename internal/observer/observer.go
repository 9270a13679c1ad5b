// Package observer moves the point of view that drives chunk streaming.
package observer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	EyeHeight = 1.62

	Gravity          = 32.0
	TerminalVelocity = -78.4
	JumpVelocity     = 9.4

	WalkSpeed        = 4.3 // blocks per second
	SprintMultiplier = 1.3
	FlySpeed         = 10.9

	groundResponse = 20.0
	airResponse    = 2.0
)

// Observer is a body with its feet at Position.
type Observer struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Yaw      float64 // degrees, -90 looks along -Z
	Pitch    float64 // degrees, clamped to ±89
	Flying   bool
	OnGround bool

	firstMouse bool
	lastX      float64
	lastY      float64
}

// New places an observer with its feet at pos, looking along -Z.
func New(pos mgl32.Vec3) *Observer {
	return &Observer{Position: pos, Yaw: -90, firstMouse: true}
}

// Intent is the movement requested for one step. Forward and Strafe are in
// [-1, 1].
type Intent struct {
	Forward float32
	Strafe  float32
	Jump    bool
	Sprint  bool
	// Up and Down steer vertically while flying.
	Up   bool
	Down bool
}

// Eye returns the eye position.
func (o *Observer) Eye() mgl32.Vec3 {
	return o.Position.Add(mgl32.Vec3{0, EyeHeight, 0})
}

// Front returns the unit view direction.
func (o *Observer) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(o.Yaw))
	pt := mgl32.DegToRad(float32(o.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// ViewMatrix returns the look-at matrix from the eye.
func (o *Observer) ViewMatrix() mgl32.Mat4 {
	eye := o.Eye()
	return mgl32.LookAtV(eye, eye.Add(o.Front()), mgl32.Vec3{0, 1, 0})
}

// Look turns the view by a mouse delta in degrees.
func (o *Observer) Look(dyaw, dpitch float64) {
	o.Yaw += dyaw
	o.Pitch += dpitch
	if o.Pitch > 89.0 {
		o.Pitch = 89.0
	}
	if o.Pitch < -89.0 {
		o.Pitch = -89.0
	}
}

// HandleCursor turns the view from an absolute cursor position.
func (o *Observer) HandleCursor(xpos, ypos, sensitivity float64) {
	if o.firstMouse {
		o.lastX, o.lastY = xpos, ypos
		o.firstMouse = false
		return
	}
	dx := xpos - o.lastX
	dy := o.lastY - ypos
	o.lastX, o.lastY = xpos, ypos
	o.Look(dx*sensitivity, dy*sensitivity)
}

// ResetCursor makes the next HandleCursor call only record the position.
func (o *Observer) ResetCursor() {
	o.firstMouse = true
}
