package system

import (
	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/ecs"
	"github.com/milk9111/gridnav/ecs/component"
)

// MovementSystem turns accumulated movement input into velocity and
// integrates position. Input longer than one unit is clamped to one.
type MovementSystem struct{}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{}
}

func (s *MovementSystem) Update(w *ecs.World, dt float32) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.BodyComponent.Kind(), func(_ ecs.Entity, body *component.Body) {
		in := body.ConsumeInput()
		if in.Len() > 1 {
			in = common.SafeNormal(in)
		}
		vel := in.Mul(body.MaxSpeed)
		body.SetVelocity(vel)
		if dt > 0 {
			body.Position = body.Position.Add(vel.Mul(dt))
		}
	})
}
