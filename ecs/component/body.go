package component

import "github.com/milk9111/gridnav/common"

// Body is the kinematic state of a navigating pawn. Movement input collects
// during a tick and is consumed by the movement system.
type Body struct {
	Position common.Vec3
	MaxSpeed float32

	velocity common.Vec3
	yaw      float32
	input    common.Vec3
}

var BodyComponent = NewComponent[Body]()

func (b *Body) Location() common.Vec3 {
	return b.Position
}

func (b *Body) AddMovementInput(dir common.Vec3) {
	b.input = b.input.Add(dir)
}

func (b *Body) Velocity() common.Vec3 {
	return b.velocity
}

func (b *Body) SetVelocity(v common.Vec3) {
	b.velocity = v
}

func (b *Body) Yaw() float32 {
	return b.yaw
}

func (b *Body) SetYaw(deg float32) {
	b.yaw = common.NormalizeAxis(deg)
}

// ConsumeInput returns the accumulated input and resets it.
func (b *Body) ConsumeInput() common.Vec3 {
	in := b.input
	b.input = common.Vec3{}
	return in
}

// Teleport moves the body and stops it.
func (b *Body) Teleport(p common.Vec3) {
	b.Position = p
	b.velocity = common.Vec3{}
	b.input = common.Vec3{}
}
