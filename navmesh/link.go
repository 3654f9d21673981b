package navmesh

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/event"
)

// LinkWay is the direction of a node link.
type LinkWay int

const (
	LeftToRight LinkWay = iota
	RightToLeft
	Both
)

func (w LinkWay) String() string {
	switch w {
	case LeftToRight:
		return "lr"
	case RightToLeft:
		return "rl"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("linkway(%d)", int(w))
	}
}

func ParseLinkWay(s string) (LinkWay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lr", "left_to_right":
		return LeftToRight, nil
	case "rl", "right_to_left":
		return RightToLeft, nil
	case "both", "":
		return Both, nil
	default:
		return 0, fmt.Errorf("navmesh: unknown link way %q", s)
	}
}

func (w LinkWay) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *LinkWay) UnmarshalText(text []byte) error {
	v, err := ParseLinkWay(string(text))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// LinkReached is broadcast when a traveler passes a linked node while heading
// for one of the link's endpoints.
type LinkReached struct {
	Agent       Traveler
	Node        NodeRef
	Destination common.Vec3
}

// Linker keeps an explicit edge between the nodes closest to two points and
// re-resolves it after every regeneration of its graph.
type Linker struct {
	graph       *Graph
	left, right common.Vec3
	way         LinkWay

	nodeLeft, nodeRight NodeRef
	genSub              event.Handle
	leftSub, rightSub   event.Handle
	logger              *slog.Logger

	OnLinkedNodeReached *event.Delegate[LinkReached]
}

func NewLinker(graph *Graph, left, right common.Vec3, way LinkWay, opts ...Option) *Linker {
	o := buildOptions("linker", opts)
	l := &Linker{
		left:                left,
		right:               right,
		way:                 way,
		logger:              o.logger,
		OnLinkedNodeReached: &event.Delegate[LinkReached]{},
	}
	l.SetGraph(graph)
	return l
}

func (l *Linker) Left() NodeRef {
	if l == nil {
		return NodeRef{}
	}
	return l.nodeLeft
}

func (l *Linker) Right() NodeRef {
	if l == nil {
		return NodeRef{}
	}
	return l.nodeRight
}

// Endpoints returns the two world points the link resolves from.
func (l *Linker) Endpoints() (common.Vec3, common.Vec3) {
	if l == nil {
		return common.Vec3{}, common.Vec3{}
	}
	return l.left, l.right
}

func (l *Linker) Way() LinkWay {
	if l == nil {
		return Both
	}
	return l.way
}

// Linked reports whether both endpoints resolve in the current graph.
func (l *Linker) Linked() bool {
	if l == nil {
		return false
	}
	return l.graph.Node(l.nodeLeft) != nil && l.graph.Node(l.nodeRight) != nil
}

// Init resolves both endpoints and installs the link. It is rejected when an
// endpoint has no accessible node, both resolve to the same node, or the two
// nodes already share an edge in either direction; a rejected Init keeps the
// previous link.
func (l *Linker) Init() bool {
	if l == nil || l.graph == nil {
		return false
	}
	l.watchGraph()

	a := l.graph.ClosestNode(l.left)
	b := l.graph.ClosestNode(l.right)
	na, nb := l.graph.Node(a), l.graph.Node(b)
	if na == nil || nb == nil {
		l.logger.Debug("link endpoint unresolved", slog.String("left", a.String()), slog.String("right", b.String()))
		return false
	}
	if a == b || na.HasNeighbor(b) || nb.HasNeighbor(a) {
		l.logger.Debug("link rejected", slog.String("left", a.String()), slog.String("right", b.String()))
		return false
	}

	l.removeEdges(l.way)
	l.unwatchNodes()
	l.nodeLeft, l.nodeRight = a, b
	l.addEdges(l.way)
	l.leftSub = na.OnPassedBy.Add(l.onPassedBy)
	l.rightSub = nb.OnPassedBy.Add(l.onPassedBy)
	return true
}

// Clear removes the link edges and forgets both endpoints.
func (l *Linker) Clear() {
	if l == nil {
		return
	}
	l.removeEdges(l.way)
	l.unwatchNodes()
	l.nodeLeft, l.nodeRight = NodeRef{}, NodeRef{}
}

// SetWay swaps the direction of an installed link.
func (l *Linker) SetWay(way LinkWay) {
	if l == nil || way == l.way {
		return
	}
	l.removeEdges(l.way)
	l.way = way
	l.addEdges(way)
}

// SetGraph clears the link and follows the regenerations of g instead.
func (l *Linker) SetGraph(g *Graph) {
	if l == nil {
		return
	}
	if g == l.graph && (g == nil || l.genSub != 0) {
		return
	}
	l.Clear()
	if l.graph != nil {
		l.graph.OnGenerated.Remove(l.genSub)
	}
	l.genSub = 0
	l.graph = g
	l.watchGraph()
}

// Close detaches the linker from its graph.
func (l *Linker) Close() {
	if l == nil {
		return
	}
	l.Clear()
	if l.graph != nil {
		l.graph.OnGenerated.Remove(l.genSub)
	}
	l.genSub = 0
}

func (l *Linker) watchGraph() {
	if l.graph == nil || l.genSub != 0 {
		return
	}
	l.genSub = l.graph.OnGenerated.Add(func(Generated) { l.Init() })
}

func (l *Linker) unwatchNodes() {
	if n := l.graph.Node(l.nodeLeft); n != nil {
		n.OnPassedBy.Remove(l.leftSub)
	}
	if n := l.graph.Node(l.nodeRight); n != nil {
		n.OnPassedBy.Remove(l.rightSub)
	}
	l.leftSub, l.rightSub = 0, 0
}

func (l *Linker) addEdges(way LinkWay) {
	na, nb := l.graph.Node(l.nodeLeft), l.graph.Node(l.nodeRight)
	if na == nil || nb == nil {
		return
	}
	switch way {
	case LeftToRight:
		na.AddNeighbor(nb)
	case RightToLeft:
		nb.AddNeighbor(na)
	case Both:
		na.AddNeighbor(nb)
		nb.AddNeighbor(na)
	}
}

func (l *Linker) removeEdges(way LinkWay) {
	na, nb := l.graph.Node(l.nodeLeft), l.graph.Node(l.nodeRight)
	if na == nil || nb == nil {
		return
	}
	switch way {
	case LeftToRight:
		na.RemoveNeighbor(nb)
	case RightToLeft:
		nb.RemoveNeighbor(na)
	case Both:
		na.RemoveNeighbor(nb)
		nb.RemoveNeighbor(na)
	}
}

func (l *Linker) onPassedBy(ev PassedBy) {
	if ev.Agent == nil {
		return
	}
	target := ev.Agent.TargetNode()
	if target.IsNull() {
		return
	}
	if target == l.nodeLeft {
		if n := l.graph.Node(l.nodeLeft); n != nil {
			l.OnLinkedNodeReached.Broadcast(LinkReached{Agent: ev.Agent, Node: n.Ref(), Destination: n.Location()})
		}
	}
	if target == l.nodeRight {
		if n := l.graph.Node(l.nodeRight); n != nil {
			l.OnLinkedNodeReached.Broadcast(LinkReached{Agent: ev.Agent, Node: n.Ref(), Destination: n.Location()})
		}
	}
}
