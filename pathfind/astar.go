// Package pathfind searches routes over a navigation graph and tracks an
// agent's progress along them.
package pathfind

import (
	"log/slog"
	"slices"
	"time"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/event"
	"github.com/milk9111/gridnav/navmesh"
)

// Failure is broadcast when no route joins Start to End.
type Failure struct {
	Start    navmesh.NodeRef
	End      navmesh.NodeRef
	Expanded int
}

// Stats summarises one search.
type Stats struct {
	OK       bool
	Expanded int
	Length   int
	Duration time.Duration
}

// nodeInfo is the per-search bookkeeping for one node.
type nodeInfo struct {
	cost        float32
	heuristic   float32
	predecessor navmesh.NodeRef
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// AStar computes routes over one graph. Searches keep their state in a
// per-call table, so the graph itself is never written.
type AStar struct {
	graph  *navmesh.Graph
	logger *slog.Logger

	OnCompleted *event.Delegate[*Path]
	OnFailed    *event.Delegate[Failure]
	OnSearched  *event.Delegate[Stats]
}

func NewAStar(graph *navmesh.Graph, opts ...Option) *AStar {
	o := options{logger: slog.Default().With(slog.String("component", "astar"))}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &AStar{
		graph:       graph,
		logger:      o.logger,
		OnCompleted: &event.Delegate[*Path]{},
		OnFailed:    &event.Delegate[Failure]{},
		OnSearched:  &event.Delegate[Stats]{},
	}
}

func (a *AStar) Graph() *navmesh.Graph {
	if a == nil {
		return nil
	}
	return a.graph
}

func (a *AStar) SetGraph(g *navmesh.Graph) {
	if a == nil {
		return
	}
	a.graph = g
}

// ComputePath searches from start to end and broadcasts the outcome before
// returning it.
func (a *AStar) ComputePath(start, end navmesh.NodeRef) (*Path, bool) {
	if a == nil {
		return nil, false
	}
	began := time.Now()
	nodes, expanded, ok := a.search(start, end)
	stats := Stats{OK: ok, Expanded: expanded, Length: len(nodes), Duration: time.Since(began)}
	a.OnSearched.Broadcast(stats)

	if !ok {
		a.logger.Debug("path failed",
			slog.String("start", start.String()),
			slog.String("end", end.String()),
			slog.Int("expanded", expanded),
		)
		a.OnFailed.Broadcast(Failure{Start: start, End: end, Expanded: expanded})
		return nil, false
	}
	p := NewPath(nodes)
	a.logger.Debug("path found", slog.Int("nodes", len(nodes)), slog.Int("expanded", expanded))
	a.OnCompleted.Broadcast(p)
	return p, true
}

// Search returns the node sequence from start to end, both included.
func (a *AStar) Search(start, end navmesh.NodeRef) ([]navmesh.NodeRef, bool) {
	if a == nil {
		return nil, false
	}
	nodes, _, ok := a.search(start, end)
	return nodes, ok
}

// search pops the frontier in insertion order. A node is pushed again
// whenever a cheaper route to it turns up, so the frontier may hold
// duplicates; the step cost is one plus the distance between the nodes.
func (a *AStar) search(start, end navmesh.NodeRef) ([]navmesh.NodeRef, int, bool) {
	g := a.graph
	if g.Node(start) == nil || g.Node(end) == nil {
		return nil, 0, false
	}

	infos := map[navmesh.NodeRef]*nodeInfo{start: {}}
	open := []navmesh.NodeRef{start}
	closed := make(map[navmesh.NodeRef]struct{})
	expanded := 0

	for len(open) > 0 {
		ref := open[0]
		open = open[1:]
		closed[ref] = struct{}{}
		expanded++

		if ref == end {
			nodes, ok := reconstruct(infos, start, end)
			return nodes, expanded, ok
		}

		node := g.Node(ref)
		info := infos[ref]
		for _, nref := range node.Neighbors() {
			neighbor := g.Node(nref)
			if neighbor == nil || !neighbor.Accessible() {
				continue
			}
			if _, done := closed[nref]; done {
				continue
			}
			step := common.Dist(node.Location(), neighbor.Location())
			cost := info.cost + 1 + step

			ninfo, seen := infos[nref]
			if !seen {
				ninfo = &nodeInfo{}
				infos[nref] = ninfo
			}
			if !slices.Contains(open, nref) || cost < ninfo.cost {
				ninfo.cost = cost
				ninfo.heuristic = cost + step
				ninfo.predecessor = ref
				open = append(open, nref)
			}
		}
	}
	return nil, expanded, false
}

func reconstruct(infos map[navmesh.NodeRef]*nodeInfo, start, end navmesh.NodeRef) ([]navmesh.NodeRef, bool) {
	var nodes []navmesh.NodeRef
	for ref := end; ref != start; {
		info, ok := infos[ref]
		if ref.IsNull() || !ok {
			return nil, false
		}
		nodes = append(nodes, ref)
		ref = info.predecessor
	}
	nodes = append(nodes, start)
	slices.Reverse(nodes)
	return nodes, true
}
