package navmesh

import (
	"testing"

	"github.com/milk9111/gridnav/common"
)

type traveler struct {
	target NodeRef
}

func (t traveler) TargetNode() NodeRef {
	return t.target
}

// lineGraph is a 1x5 strip along y: nodes at y = 0, 50, 100, 150, 200.
func lineGraph(t *testing.T) *Graph {
	t.Helper()
	return generate(t, gridSettings(1, 5), flatWorld(), StrategyGrid)
}

func TestLinkerInit(t *testing.T) {
	g := lineGraph(t)
	l := NewLinker(g, common.Vec3{0, 0, 0}, common.Vec3{0, 200, 0}, Both, quiet())
	if !l.Init() {
		t.Fatalf("expected link to install")
	}
	left, right := g.Node(l.Left()), g.Node(l.Right())
	if left == nil || right == nil {
		t.Fatalf("expected both endpoints to resolve")
	}
	if left.Ref() != g.Nodes()[0].Ref() || right.Ref() != g.Nodes()[4].Ref() {
		t.Fatalf("unexpected endpoints %v %v", left.Ref(), right.Ref())
	}
	if !left.HasNeighbor(right.Ref()) || !right.HasNeighbor(left.Ref()) {
		t.Fatalf("expected edges in both directions")
	}
	if l.Init() {
		t.Fatalf("second init should be rejected because the edge exists")
	}
	if !l.Linked() {
		t.Fatalf("rejected init must keep the link")
	}
}

func TestLinkerRejects(t *testing.T) {
	g := lineGraph(t)
	tests := []struct {
		name        string
		left, right common.Vec3
	}{
		{name: "same node", left: common.Vec3{0, 0, 0}, right: common.Vec3{0, 10, 0}},
		{name: "already adjacent", left: common.Vec3{0, 0, 0}, right: common.Vec3{0, 50, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinker(g, tt.left, tt.right, Both, quiet())
			defer l.Close()
			if l.Init() {
				t.Fatalf("expected init to be rejected")
			}
			if l.Linked() {
				t.Fatalf("rejected link should not be linked")
			}
		})
	}

	empty := NewGraph(gridSettings(1, 5), flatWorld(), quiet())
	l := NewLinker(empty, common.Vec3{}, common.Vec3{0, 200, 0}, Both, quiet())
	if l.Init() {
		t.Fatalf("init on an empty graph should fail")
	}
	if NewLinker(nil, common.Vec3{}, common.Vec3{}, Both).Init() {
		t.Fatalf("init without graph should fail")
	}
}

func TestLinkerWay(t *testing.T) {
	g := lineGraph(t)
	l := NewLinker(g, common.Vec3{0, 0, 0}, common.Vec3{0, 200, 0}, LeftToRight, quiet())
	if !l.Init() {
		t.Fatalf("expected link to install")
	}
	left, right := g.Node(l.Left()), g.Node(l.Right())
	if !left.HasNeighbor(right.Ref()) || right.HasNeighbor(left.Ref()) {
		t.Fatalf("expected a single left to right edge")
	}

	l.SetWay(RightToLeft)
	if left.HasNeighbor(right.Ref()) || !right.HasNeighbor(left.Ref()) {
		t.Fatalf("expected a single right to left edge")
	}

	l.Clear()
	if left.HasNeighbor(right.Ref()) || right.HasNeighbor(left.Ref()) {
		t.Fatalf("clear should remove link edges")
	}
	if l.Linked() {
		t.Fatalf("cleared link should not be linked")
	}
	if len(left.Neighbors()) != 1 {
		t.Fatalf("clear must not touch lattice edges, got %d neighbors", len(left.Neighbors()))
	}
}

func TestLinkerSurvivesRegeneration(t *testing.T) {
	g := lineGraph(t)
	l := NewLinker(g, common.Vec3{0, 0, 0}, common.Vec3{0, 200, 0}, Both, quiet())
	if !l.Init() {
		t.Fatalf("expected link to install")
	}
	before := l.Left()

	if err := g.GenerateGrid(); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if l.Left() == before {
		t.Fatalf("expected endpoints to be re-resolved")
	}
	if !l.Linked() {
		t.Fatalf("link should be re-installed after regeneration")
	}
	left, right := g.Node(l.Left()), g.Node(l.Right())
	if !left.HasNeighbor(right.Ref()) || !right.HasNeighbor(left.Ref()) {
		t.Fatalf("link edges missing after regeneration")
	}
	// lattice edges are untouched by the link
	if !left.HasNeighbor(g.Nodes()[1].Ref()) {
		t.Fatalf("lattice edge missing after regeneration")
	}

	l.Close()
	if err := g.GenerateGrid(); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if l.Linked() {
		t.Fatalf("closed linker should not relink")
	}
}

func TestLinkerReached(t *testing.T) {
	g := lineGraph(t)
	l := NewLinker(g, common.Vec3{0, 0, 0}, common.Vec3{0, 200, 0}, Both, quiet())
	if !l.Init() {
		t.Fatalf("expected link to install")
	}
	var got []LinkReached
	l.OnLinkedNodeReached.Add(func(ev LinkReached) { got = append(got, ev) })

	left, right := g.Node(l.Left()), g.Node(l.Right())

	left.PassedBy(traveler{target: right.Ref()})
	if len(got) != 1 {
		t.Fatalf("expected one reached event, got %d", len(got))
	}
	if got[0].Node != right.Ref() || got[0].Destination != right.Location() {
		t.Fatalf("expected destination %v, got %+v", right.Location(), got[0])
	}

	left.PassedBy(traveler{target: g.Nodes()[1].Ref()})
	g.Nodes()[2].PassedBy(traveler{target: right.Ref()})
	left.PassedBy(nil)
	if len(got) != 1 {
		t.Fatalf("expected no further events, got %d", len(got))
	}

	right.PassedBy(traveler{target: left.Ref()})
	if len(got) != 2 || got[1].Destination != left.Location() {
		t.Fatalf("expected reached event toward the left node, got %+v", got)
	}
}

func TestLinkerSetGraph(t *testing.T) {
	a := lineGraph(t)
	b := lineGraph(t)
	l := NewLinker(a, common.Vec3{0, 0, 0}, common.Vec3{0, 200, 0}, Both, quiet())
	if !l.Init() {
		t.Fatalf("expected link to install")
	}
	oldLeft := a.Node(l.Left())

	l.SetGraph(b)
	if oldLeft.HasNeighbor(a.Nodes()[4].Ref()) {
		t.Fatalf("moving graphs should clear the old link")
	}
	if a.OnGenerated.Len() != 0 {
		t.Fatalf("expected old graph subscription to be removed")
	}
	if err := b.GenerateGrid(); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !l.Linked() {
		t.Fatalf("expected link to follow the new graph")
	}
}
