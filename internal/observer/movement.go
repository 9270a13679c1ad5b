package observer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/physics"
)

// Move advances the observer by dt seconds, resolving collisions against
// src one axis at a time: Y first, then X, then Z.
func (o *Observer) Move(dt float64, in Intent, src physics.BlockSource) {
	yawRad := float64(mgl32.DegToRad(float32(o.Yaw)))
	frontX, frontZ := float32(math.Cos(yawRad)), float32(math.Sin(yawRad))
	rightX, rightZ := float32(math.Cos(yawRad+math.Pi/2)), float32(math.Sin(yawRad+math.Pi/2))

	wishX := in.Forward*frontX + in.Strafe*rightX
	wishZ := in.Forward*frontZ + in.Strafe*rightZ
	if l := float32(math.Hypot(float64(wishX), float64(wishZ))); l > 1 {
		wishX /= l
		wishZ /= l
	}

	speed := float32(WalkSpeed)
	if o.Flying {
		speed = FlySpeed
	}
	if in.Sprint {
		speed *= SprintMultiplier
	}

	response := airResponse
	if o.OnGround || o.Flying {
		response = groundResponse
	}
	k := float32(1 - math.Exp(-response*dt))
	o.Velocity[0] += (wishX*speed - o.Velocity[0]) * k
	o.Velocity[2] += (wishZ*speed - o.Velocity[2]) * k

	if o.Flying {
		vy := float32(0)
		if in.Up {
			vy += speed
		}
		if in.Down {
			vy -= speed
		}
		o.Velocity[1] += (vy - o.Velocity[1]) * k
	} else {
		if in.Jump && o.OnGround {
			o.Velocity[1] = JumpVelocity
			o.OnGround = false
		}
		o.Velocity[1] -= Gravity * float32(dt)
		if o.Velocity[1] < TerminalVelocity {
			o.Velocity[1] = TerminalVelocity
		}
	}

	// Stop completely if very slow
	if math.Abs(float64(o.Velocity[0])) < 0.005 {
		o.Velocity[0] = 0
	}
	if math.Abs(float64(o.Velocity[2])) < 0.005 {
		o.Velocity[2] = 0
	}

	newPos := o.Position.Add(o.Velocity.Mul(float32(dt)))

	testY := mgl32.Vec3{o.Position[0], newPos[1], o.Position[2]}
	if !physics.Collides(testY, physics.ObserverHeight, src) {
		o.Position[1] = newPos[1]
		o.OnGround = false
	} else {
		if o.Velocity[1] <= 0 && !o.Flying {
			if ground, ok := physics.FindGroundLevel(o.Position[0], o.Position[2], o.Position[1], 3, src); ok && ground <= o.Position[1]+0.001 {
				snapped := mgl32.Vec3{o.Position[0], ground, o.Position[2]}
				if !physics.Collides(snapped, physics.ObserverHeight, src) {
					o.Position[1] = ground
				}
			}
			o.OnGround = true
		}
		o.Velocity[1] = 0
	}

	testX := mgl32.Vec3{newPos[0], o.Position[1], o.Position[2]}
	if !physics.Collides(testX, physics.ObserverHeight, src) {
		o.Position[0] = newPos[0]
	} else {
		o.Velocity[0] = 0
	}

	testZ := mgl32.Vec3{o.Position[0], o.Position[1], newPos[2]}
	if !physics.Collides(testZ, physics.ObserverHeight, src) {
		o.Position[2] = newPos[2]
	} else {
		o.Velocity[2] = 0
	}

	// Standing still on ground keeps OnGround set.
	if !o.Flying && !o.OnGround && o.Velocity[1] <= 0 {
		below := mgl32.Vec3{o.Position[0], o.Position[1] - 0.01, o.Position[2]}
		if physics.Collides(below, physics.ObserverHeight, src) {
			o.OnGround = true
		}
	}
}
