package navmesh

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/spatial"
)

const (
	ground   = spatial.LayerMask(1)
	obstacle = spatial.LayerMask(2)
)

func quiet() Option {
	return WithLogger(slog.New(slog.DiscardHandler))
}

func gridSettings(sizeX, sizeY int) Settings {
	s := DefaultSettings()
	s.Origin = common.Vec3{0, 0, 100}
	s.SizeX = sizeX
	s.SizeY = sizeY
	s.GroundLayers = ground
	s.ObstacleLayers = obstacle
	return s
}

func flatWorld() *spatial.World {
	w := spatial.NewWorld()
	w.AddBox(common.Vec3{100, 100, -10}, common.Vec3{400, 400, 10}, ground)
	return w
}

func generate(t *testing.T, s Settings, q spatial.Query, strategy Strategy) *Graph {
	t.Helper()
	g := NewGraph(s, q, quiet())
	if err := g.Generate(strategy); err != nil {
		t.Fatalf("generate: %v", err)
	}
	return g
}

func TestGenerateGridFlat(t *testing.T) {
	g := generate(t, gridSettings(3, 3), flatWorld(), StrategyGrid)

	if g.Len() != 9 || g.Accessible() != 9 {
		t.Fatalf("expected 9 accessible nodes, got %d of %d", g.Accessible(), g.Len())
	}
	// corners 3, sides 5, centre 8
	if g.Edges() != 40 {
		t.Fatalf("expected 40 directed edges, got %d", g.Edges())
	}

	n := g.Nodes()[4]
	if want := (common.Vec3{50, 50, 5}); n.Location() != want {
		t.Fatalf("expected centre node at %v, got %v", want, n.Location())
	}

	walk := g.Settings().WalkRange()
	for _, a := range g.Nodes() {
		for _, b := range g.Nodes() {
			if a == b {
				continue
			}
			within := common.Dist(a.Location(), b.Location()) <= walk
			if within != a.HasNeighbor(b.Ref()) {
				t.Fatalf("edge %v -> %v: within=%v has=%v", a.Ref(), b.Ref(), within, a.HasNeighbor(b.Ref()))
			}
		}
	}
}

func TestGenerateGridNeighborOrder(t *testing.T) {
	g := generate(t, gridSettings(3, 3), flatWorld(), StrategyGrid)
	ref := func(i int) NodeRef { return g.Nodes()[i].Ref() }

	// right, left, top, top-right, top-left, down, down-right, down-left
	want := []NodeRef{ref(5), ref(3), ref(7), ref(8), ref(6), ref(1), ref(2), ref(0)}
	got := g.Nodes()[4].Neighbors()
	if len(got) != len(want) {
		t.Fatalf("expected %d neighbors, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbor %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestGenerateGridMissingGround(t *testing.T) {
	w := spatial.NewWorld()
	w.AddBox(common.Vec3{25, 50, -10}, common.Vec3{50, 200, 10}, ground)
	g := generate(t, gridSettings(3, 3), w, StrategyGrid)

	if g.Len() != 9 {
		t.Fatalf("inaccessible nodes must be retained, got %d nodes", g.Len())
	}
	if g.Accessible() != 6 {
		t.Fatalf("expected 6 accessible nodes, got %d", g.Accessible())
	}
	far := g.Nodes()[8]
	if far.Accessible() {
		t.Fatalf("node without ground should be inaccessible")
	}
	if want := (common.Vec3{100, 100, 100}); far.Location() != want {
		t.Fatalf("expected lattice point %v, got %v", want, far.Location())
	}
	if len(far.Neighbors()) != 0 {
		t.Fatalf("inaccessible node should have no neighbors")
	}
	for _, n := range g.Nodes() {
		if n.HasNeighbor(far.Ref()) {
			t.Fatalf("node %v links to an inaccessible node", n.Ref())
		}
	}
}

func TestGenerateGridObstacle(t *testing.T) {
	w := flatWorld()
	w.AddBox(common.Vec3{50, 50, 50}, common.Vec3{5, 5, 50}, obstacle)

	g := generate(t, gridSettings(3, 3), w, StrategyGrid)
	if g.Nodes()[4].Accessible() {
		t.Fatalf("node on the obstacle should be inaccessible")
	}
	if g.Accessible() != 8 {
		t.Fatalf("expected 8 accessible nodes, got %d", g.Accessible())
	}

	s := gridSettings(3, 3)
	s.ObstacleLayers = spatial.LayerNone
	g = generate(t, s, w, StrategyGrid)
	if g.Accessible() != 9 {
		t.Fatalf("empty obstacle mask should ignore obstacles, got %d accessible", g.Accessible())
	}
}

func TestGenerateGridOverhang(t *testing.T) {
	w := flatWorld()
	// low ceiling over the centre node, well above the avoidance box
	w.AddBox(common.Vec3{50, 50, 150}, common.Vec3{10, 10, 10}, obstacle)

	g := generate(t, gridSettings(3, 3), w, StrategyGrid)
	if g.Nodes()[4].Accessible() {
		t.Fatalf("agent capsule should not fit under the overhang")
	}
}

func TestGenerateErrors(t *testing.T) {
	g := generate(t, gridSettings(3, 3), flatWorld(), StrategyGrid)
	gen := g.Generation()

	s := gridSettings(3, 3)
	s.GroundLayers = spatial.LayerNone
	g.SetSettings(s)
	if err := g.Generate(StrategyGrid); !errors.Is(err, ErrNoGroundLayers) {
		t.Fatalf("expected ErrNoGroundLayers, got %v", err)
	}
	if g.Len() != 9 || g.Generation() != gen {
		t.Fatalf("failed generation must keep the previous graph")
	}

	if err := g.Generate(Strategy(7)); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}

	empty := NewGraph(gridSettings(3, 3), nil, quiet())
	if err := empty.GenerateGrid(); !errors.Is(err, ErrNoQuery) {
		t.Fatalf("expected ErrNoQuery, got %v", err)
	}
}

func TestGenerateBroadcasts(t *testing.T) {
	g := NewGraph(gridSettings(3, 3), flatWorld(), quiet())
	var got []Generated
	g.OnGenerated.Add(func(ev Generated) { got = append(got, ev) })

	if err := g.GenerateGrid(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(got))
	}
	ev := got[0]
	if ev.Nodes != 9 || ev.Accessible != 9 || ev.Edges != 40 || ev.Generation != g.Generation() {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestStaleRefs(t *testing.T) {
	g := generate(t, gridSettings(3, 3), flatWorld(), StrategyGrid)
	old := g.ClosestNode(common.Vec3{0, 0, 0})
	if g.Node(old) == nil {
		t.Fatalf("fresh ref should resolve")
	}
	if err := g.GenerateGrid(); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if g.Node(old) != nil {
		t.Fatalf("ref from previous generation should be stale")
	}
	if g.Node(NodeRef{}) != nil {
		t.Fatalf("null ref should never resolve")
	}
	g.Clear()
	if g.Len() != 0 || g.ClosestNode(common.Vec3{}) != (NodeRef{}) {
		t.Fatalf("cleared graph should be empty")
	}
}

func TestClosestNode(t *testing.T) {
	g := generate(t, gridSettings(3, 3), flatWorld(), StrategyGrid)

	tests := []struct {
		name  string
		point common.Vec3
		want  int
	}{
		{name: "exact", point: common.Vec3{50, 50, 5}, want: 4},
		{name: "far corner", point: common.Vec3{500, 500, 0}, want: 8},
		{name: "tie picks first", point: common.Vec3{25, 0, 5}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.ClosestNode(tt.point)
			if want := g.Nodes()[tt.want].Ref(); got != want {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestClosestNodeAllInaccessible(t *testing.T) {
	g := generate(t, gridSettings(3, 3), spatial.NewWorld(), StrategyGrid)
	if g.Len() != 9 {
		t.Fatalf("expected 9 nodes, got %d", g.Len())
	}
	if ref := g.ClosestNode(common.Vec3{}); !ref.IsNull() {
		t.Fatalf("expected null ref, got %v", ref)
	}
}

func TestGenerateRaycastFlatMatchesGrid(t *testing.T) {
	g := generate(t, gridSettings(3, 3), flatWorld(), StrategyRaycast)
	if g.Len() != 9 || g.Accessible() != 9 {
		t.Fatalf("expected 9 accessible nodes, got %d of %d", g.Accessible(), g.Len())
	}
	if g.Edges() != 40 {
		t.Fatalf("expected 40 directed edges, got %d", g.Edges())
	}
	for _, n := range g.Nodes() {
		for _, r := range n.Neighbors() {
			if !g.Node(r).HasNeighbor(n.Ref()) {
				t.Fatalf("raycast edges should be symmetric")
			}
		}
	}
}

func TestGenerateRaycastMultiLevel(t *testing.T) {
	w := flatWorld()
	// low slab over the first column
	w.AddBox(common.Vec3{0, 0, 65}, common.Vec3{20, 20, 5}, ground)

	s := gridSettings(2, 1)
	s.Origin = common.Vec3{0, 0, 300}
	s.Height = 400
	g := generate(t, s, w, StrategyRaycast)

	if g.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.Len())
	}
	nodes := g.Nodes()
	if z := nodes[0].Location()[2]; z != 75 || !nodes[0].Accessible() {
		t.Fatalf("expected accessible slab node at z=75, got z=%v accessible=%v", z, nodes[0].Accessible())
	}
	if nodes[1].Accessible() {
		t.Fatalf("node under the slab has no headroom and should be inaccessible")
	}
	if !nodes[2].Accessible() {
		t.Fatalf("open ground node should be accessible")
	}
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{SizeX: 0, SizeY: 900, Gap: -1, ObstacleAvoidance: 0}.Normalize()
	if s.SizeX != 1 || s.SizeY != 500 {
		t.Fatalf("expected grid clamped to 1x500, got %dx%d", s.SizeX, s.SizeY)
	}
	if s.Gap != 1 || s.ObstacleAvoidance != 0.01 {
		t.Fatalf("unexpected clamp gap=%v avoidance=%v", s.Gap, s.ObstacleAvoidance)
	}
	d := DefaultSettings()
	if d.Normalize() != d {
		t.Fatalf("defaults should already be normalized")
	}
}

func TestParseStrategy(t *testing.T) {
	var s Strategy
	if err := s.UnmarshalText([]byte("raycast")); err != nil || s != StrategyRaycast {
		t.Fatalf("expected raycast, got %v (%v)", s, err)
	}
	if _, err := ParseStrategy("hex"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}
