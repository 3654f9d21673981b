// Package navmesh builds a navigation graph by sampling a spatial query
// service on a regular lattice, and keeps explicit links between nodes
// across regenerations.
package navmesh

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/event"
	"github.com/milk9111/gridnav/spatial"
)

var (
	ErrNoGroundLayers  = errors.New("navmesh: ground layers are empty, nodes can not be created")
	ErrNoQuery         = errors.New("navmesh: no spatial query configured")
	ErrUnknownStrategy = errors.New("navmesh: unknown generation strategy")
)

// Generated is broadcast after every successful generation.
type Generated struct {
	Strategy   Strategy
	Nodes      int
	Accessible int
	Edges      int
	Generation uint32
	Duration   time.Duration
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

// WithLogger overrides the default component logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{logger: slog.Default().With(slog.String("component", component))}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Graph owns every node of one navigation mesh.
type Graph struct {
	settings Settings
	query    spatial.Query
	nodes    []*Node
	gen      uint32
	logger   *slog.Logger

	OnGenerated *event.Delegate[Generated]
}

func NewGraph(settings Settings, query spatial.Query, opts ...Option) *Graph {
	o := buildOptions("navmesh", opts)
	return &Graph{
		settings:    settings.Normalize(),
		query:       query,
		logger:      o.logger,
		OnGenerated: &event.Delegate[Generated]{},
	}
}

func (g *Graph) Settings() Settings {
	if g == nil {
		return Settings{}
	}
	return g.settings
}

// SetSettings takes effect on the next generation.
func (g *Graph) SetSettings(s Settings) {
	if g == nil {
		return
	}
	g.settings = s.Normalize()
}

func (g *Graph) SetQuery(q spatial.Query) {
	if g == nil {
		return
	}
	g.query = q
}

// Generation is bumped by every Generate and Clear. Refs from an older
// generation no longer resolve.
func (g *Graph) Generation() uint32 {
	if g == nil {
		return 0
	}
	return g.gen
}

func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Nodes returns the nodes in generation order. The slice is shared; callers
// must not modify it.
func (g *Graph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	return g.nodes
}

// Node resolves ref, returning nil for null or stale refs.
func (g *Graph) Node(ref NodeRef) *Node {
	if g == nil || ref.IsNull() || ref.Gen != g.gen {
		return nil
	}
	if ref.Index < 0 || int(ref.Index) >= len(g.nodes) {
		return nil
	}
	return g.nodes[ref.Index]
}

// Clear drops every node.
func (g *Graph) Clear() {
	if g == nil {
		return
	}
	g.nodes = nil
	g.gen++
}

// ClosestNode returns the accessible node nearest to p, the first one found
// on ties, or the null ref when no node is accessible.
func (g *Graph) ClosestNode(p common.Vec3) NodeRef {
	if g == nil {
		return NodeRef{}
	}
	var best *Node
	bestDist := float32(math.MaxFloat32)
	for _, n := range g.nodes {
		if n == nil || !n.accessible {
			continue
		}
		if d := common.Dist(n.location, p); d < bestDist {
			bestDist = d
			best = n
		}
	}
	return best.Ref()
}

// AddLink adds a one-way edge from a to b.
func (g *Graph) AddLink(a, b NodeRef) bool {
	na, nb := g.Node(a), g.Node(b)
	if na == nil || nb == nil {
		return false
	}
	return na.AddNeighbor(nb)
}

// RemoveLink removes the one-way edge from a to b.
func (g *Graph) RemoveLink(a, b NodeRef) bool {
	na, nb := g.Node(a), g.Node(b)
	if na == nil || nb == nil {
		return false
	}
	return na.RemoveNeighbor(nb)
}

// Edges counts directed edges.
func (g *Graph) Edges() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, n := range g.nodes {
		total += len(n.neighbors)
	}
	return total
}

// Accessible counts accessible nodes.
func (g *Graph) Accessible() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, n := range g.nodes {
		if n.accessible {
			total++
		}
	}
	return total
}
