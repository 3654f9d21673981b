package spatial

import (
	"math"
	"testing"

	"github.com/milk9111/gridnav/common"
)

const (
	groundLayer   = LayerMask(1)
	obstacleLayer = LayerMask(2)
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) <= 1e-4
}

func nearVec(a, b common.Vec3) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

func TestRaycastDownHitsTopFace(t *testing.T) {
	w := NewWorld()
	id := w.AddBox(common.Vec3{0, 0, -10}, common.Vec3{100, 100, 10}, groundLayer)

	hit, ok := w.Raycast(common.Vec3{20, 30, 100}, common.Vec3{20, 30, -100}, groundLayer)
	if !ok {
		t.Fatalf("expected ray to hit the ground box")
	}
	if hit.Box != id {
		t.Fatalf("expected box %d, got %d", id, hit.Box)
	}
	if !nearVec(hit.Location, common.Vec3{20, 30, 0}) {
		t.Fatalf("expected impact at top face, got %v", hit.Location)
	}
	if !nearVec(hit.Normal, common.Vec3{0, 0, 1}) {
		t.Fatalf("expected up normal, got %v", hit.Normal)
	}
	if !near(hit.Distance, 100) {
		t.Fatalf("expected distance 100, got %v", hit.Distance)
	}
}

func TestRaycastRespectsMask(t *testing.T) {
	w := NewWorld()
	w.AddBox(common.Vec3{0, 0, 0}, common.Vec3{10, 10, 10}, obstacleLayer)

	if _, ok := w.Raycast(common.Vec3{0, 0, 50}, common.Vec3{0, 0, -50}, groundLayer); ok {
		t.Fatalf("ray on ground layer should ignore obstacle boxes")
	}
	if _, ok := w.Raycast(common.Vec3{0, 0, 50}, common.Vec3{0, 0, -50}, LayerNone); ok {
		t.Fatalf("empty mask must never hit")
	}
	if _, ok := w.Raycast(common.Vec3{0, 0, 50}, common.Vec3{0, 0, -50}, groundLayer|obstacleLayer); !ok {
		t.Fatalf("combined mask should see the obstacle")
	}
}

func TestRaycastMissesShortSegment(t *testing.T) {
	w := NewWorld()
	w.AddBox(common.Vec3{0, 0, 0}, common.Vec3{10, 10, 10}, groundLayer)

	if _, ok := w.Raycast(common.Vec3{0, 0, 100}, common.Vec3{0, 0, 20}, groundLayer); ok {
		t.Fatalf("segment ending above the box should miss")
	}
	if _, ok := w.Raycast(common.Vec3{50, 0, 100}, common.Vec3{50, 0, -100}, groundLayer); ok {
		t.Fatalf("segment beside the box should miss")
	}
}

func TestRaycastStartingInside(t *testing.T) {
	w := NewWorld()
	w.AddBox(common.Vec3{0, 0, 0}, common.Vec3{10, 10, 10}, groundLayer)

	hit, ok := w.Raycast(common.Vec3{0, 0, 0}, common.Vec3{0, 0, 100}, groundLayer)
	if !ok {
		t.Fatalf("expected hit for ray starting inside box")
	}
	if hit.Distance != 0 {
		t.Fatalf("expected zero distance, got %v", hit.Distance)
	}
	if !nearVec(hit.Normal, common.Vec3{0, 0, -1}) {
		t.Fatalf("expected normal opposite the ray, got %v", hit.Normal)
	}
}

func TestMultiRaycastSortedByDistance(t *testing.T) {
	w := NewWorld()
	lower := w.AddBox(common.Vec3{0, 0, -10}, common.Vec3{50, 50, 10}, groundLayer)
	upper := w.AddBox(common.Vec3{0, 0, 190}, common.Vec3{50, 50, 10}, groundLayer)

	hits := w.MultiRaycast(common.Vec3{0, 0, 500}, common.Vec3{0, 0, -500}, groundLayer)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Box != upper || hits[1].Box != lower {
		t.Fatalf("expected upper then lower, got %d then %d", hits[0].Box, hits[1].Box)
	}
	if !near(hits[0].Location[2], 200) || !near(hits[1].Location[2], 0) {
		t.Fatalf("unexpected impact heights %v and %v", hits[0].Location[2], hits[1].Location[2])
	}
}

func TestBoxOverlap(t *testing.T) {
	w := NewWorld()
	w.AddBox(common.Vec3{100, 0, 50}, common.Vec3{10, 10, 50}, obstacleLayer)

	tests := []struct {
		name   string
		center common.Vec3
		want   bool
	}{
		{name: "penetrating", center: common.Vec3{80, 0, 30}, want: true},
		{name: "touching face", center: common.Vec3{65, 0, 30}, want: false},
		{name: "far", center: common.Vec3{0, 0, 30}, want: false},
		{name: "below", center: common.Vec3{100, 0, -40}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := w.BoxOverlap(tt.center, common.Vec3{25, 25, 25}, obstacleLayer)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCapsuleOverlap(t *testing.T) {
	w := NewWorld()
	w.AddBox(common.Vec3{0, 0, 300}, common.Vec3{50, 50, 10}, obstacleLayer)

	tests := []struct {
		name   string
		center common.Vec3
		want   bool
	}{
		// capsule spans z [0, 200], box bottom at 290
		{name: "under overhang", center: common.Vec3{0, 0, 100}, want: false},
		// capsule spans z [100, 300]
		{name: "into overhang", center: common.Vec3{0, 0, 200}, want: true},
		{name: "beside overhang", center: common.Vec3{100, 0, 300}, want: false},
		{name: "clipping corner", center: common.Vec3{80, 0, 300}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := w.CapsuleOverlap(tt.center, 40, 100, obstacleLayer)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRemoveBox(t *testing.T) {
	w := NewWorld()
	id := w.AddBox(common.Vec3{}, common.Vec3{10, 10, 10}, groundLayer)
	if w.Len() != 1 {
		t.Fatalf("expected 1 box, got %d", w.Len())
	}
	if !w.RemoveBox(id) {
		t.Fatalf("expected remove to succeed")
	}
	if w.RemoveBox(id) {
		t.Fatalf("expected second remove to fail")
	}
	if _, ok := w.Raycast(common.Vec3{0, 0, 50}, common.Vec3{0, 0, -50}, groundLayer); ok {
		t.Fatalf("removed box should not be hit")
	}
}

func TestNilWorld(t *testing.T) {
	var w *World
	if _, ok := w.Raycast(common.Vec3{}, common.Vec3{0, 0, 1}, groundLayer); ok {
		t.Fatalf("nil world should never hit")
	}
	if w.Len() != 0 || w.Boxes() != nil {
		t.Fatalf("nil world should be empty")
	}
}
