package component

import (
	"testing"

	"github.com/milk9111/gridnav/agent"
	"github.com/milk9111/gridnav/common"
)

var _ agent.Pawn = (*Body)(nil)

func TestComponentKinds(t *testing.T) {
	a := NewComponent[int]()
	b := NewComponent[int]()
	if !a.Kind().Valid() || !b.Kind().Valid() {
		t.Fatalf("expected registered kinds to be valid")
	}
	if a.Kind().ID() == b.Kind().ID() {
		t.Fatalf("expected distinct ids, got %d twice", a.Kind().ID())
	}
	if got := BodyComponent.Kind().Name(); got != "component.Body" {
		t.Fatalf("expected component.Body, got %q", got)
	}
	var zero ComponentKind[Body]
	if zero.Valid() {
		t.Fatalf("zero kind must be invalid")
	}
}

func TestBodyInput(t *testing.T) {
	b := &Body{Position: common.Vec3{1, 2, 3}}
	b.AddMovementInput(common.Vec3{1, 0, 0})
	b.AddMovementInput(common.Vec3{0, 1, 0})

	if got := b.ConsumeInput(); got != (common.Vec3{1, 1, 0}) {
		t.Fatalf("expected accumulated input (1,1,0), got %v", got)
	}
	if got := b.ConsumeInput(); got != (common.Vec3{}) {
		t.Fatalf("expected input to reset, got %v", got)
	}
}

func TestBodyYawNormalized(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{in: 90, want: 90},
		{in: 270, want: -90},
		{in: -180, want: 180},
		{in: 540, want: 180},
	}
	for _, tt := range tests {
		b := &Body{}
		b.SetYaw(tt.in)
		if b.Yaw() != tt.want {
			t.Fatalf("SetYaw(%v): expected %v, got %v", tt.in, tt.want, b.Yaw())
		}
	}
}

func TestBodyTeleportStops(t *testing.T) {
	b := &Body{}
	b.SetVelocity(common.Vec3{5, 0, 0})
	b.AddMovementInput(common.Vec3{1, 0, 0})

	b.Teleport(common.Vec3{10, 20, 30})
	if b.Location() != (common.Vec3{10, 20, 30}) {
		t.Fatalf("expected new location, got %v", b.Location())
	}
	if b.Velocity() != (common.Vec3{}) || b.ConsumeInput() != (common.Vec3{}) {
		t.Fatalf("expected teleport to clear velocity and input")
	}
}
