package navmesh

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/milk9111/gridnav/common"
)

// Generate rebuilds the graph with the given strategy. On error the previous
// nodes are kept.
func (g *Graph) Generate(strategy Strategy) error {
	if g == nil {
		return ErrNoQuery
	}
	if g.query == nil {
		return ErrNoQuery
	}
	if strategy != StrategyGrid && strategy != StrategyRaycast {
		return fmt.Errorf("navmesh: generate: %w: %d", ErrUnknownStrategy, int(strategy))
	}
	s := g.settings
	if s.ObstacleLayers.Empty() {
		g.logger.Warn("obstacle layers are empty, obstacles are ignored")
	}
	if s.GroundLayers.Empty() {
		g.logger.Error("ground layers are empty, nodes can not be created")
		return ErrNoGroundLayers
	}

	start := time.Now()
	g.gen++
	g.nodes = nil
	switch strategy {
	case StrategyGrid:
		g.sampleGrid()
		g.linkLattice()
	case StrategyRaycast:
		g.sampleColumns()
		g.linkByDistance()
	}

	ev := Generated{
		Strategy:   strategy,
		Nodes:      len(g.nodes),
		Accessible: g.Accessible(),
		Edges:      g.Edges(),
		Generation: g.gen,
		Duration:   time.Since(start),
	}
	g.logger.Info("navigation mesh generated",
		slog.String("strategy", strategy.String()),
		slog.Int("nodes", ev.Nodes),
		slog.Int("accessible", ev.Accessible),
		slog.Int("edges", ev.Edges),
		slog.Duration("took", ev.Duration),
	)
	g.OnGenerated.Broadcast(ev)
	return nil
}

func (g *Graph) GenerateGrid() error {
	return g.Generate(StrategyGrid)
}

func (g *Graph) GenerateRaycast() error {
	return g.Generate(StrategyRaycast)
}

func (g *Graph) latticePoint(x, y int) common.Vec3 {
	s := g.settings
	return s.Origin.Add(common.Vec3{float32(x) * s.Gap, float32(y) * s.Gap, 0})
}

func (g *Graph) appendNode(location common.Vec3) *Node {
	n := newNode(NodeRef{Index: int32(len(g.nodes)), Gen: g.gen}, location)
	g.nodes = append(g.nodes, n)
	return n
}

// sampleGrid snaps one node per lattice point onto the ground below it.
// Nodes without ground stay in the graph as inaccessible.
func (g *Graph) sampleGrid() {
	s := g.settings
	for x := 0; x < s.SizeX; x++ {
		for y := 0; y < s.SizeY; y++ {
			p := g.latticePoint(x, y)
			n := g.appendNode(p)
			hit, ok := g.query.Raycast(p, p.Sub(common.Vec3{0, 0, s.Height}), s.GroundLayers)
			if !ok {
				continue
			}
			n.location = hit.Location.Add(hit.Normal.Mul(s.SurfaceHeight))
			n.setAccessible(g.clearOfObstacles(n.location))
		}
	}
}

// sampleColumns creates a node for every ground surface crossed by the
// vertical window of each lattice column.
func (g *Graph) sampleColumns() {
	s := g.settings
	for x := 0; x < s.SizeX; x++ {
		for y := 0; y < s.SizeY; y++ {
			p := g.latticePoint(x, y)
			hits := g.query.MultiRaycast(p, p.Sub(common.Vec3{0, 0, s.Height}), s.GroundLayers)
			for _, hit := range hits {
				loc := hit.Location.Add(hit.Normal.Mul(s.SurfaceHeight))
				n := g.appendNode(loc)
				_, blocked := g.query.Raycast(loc, loc.Add(common.Vec3{0, 0, s.AgentHeight}), s.GroundLayers)
				if blocked {
					continue
				}
				n.setAccessible(g.clearOfObstacles(loc))
			}
		}
	}
}

// clearOfObstacles checks the avoidance box and the agent capsule at loc.
func (g *Graph) clearOfObstacles(loc common.Vec3) bool {
	s := g.settings
	if s.ObstacleLayers.Empty() {
		return true
	}
	extent := common.Vec3{s.ObstacleAvoidance, s.ObstacleAvoidance, s.ObstacleAvoidance}
	if _, hit := g.query.BoxOverlap(loc, extent, s.ObstacleLayers); hit {
		return false
	}
	center := loc.Add(common.Vec3{0, 0, s.AgentHeight})
	_, hit := g.query.CapsuleOverlap(center, s.AgentWidth, s.AgentHeight, s.ObstacleLayers)
	return !hit
}

// linkLattice connects 8-connected lattice neighbours that lie within the
// walk range. Nodes are laid out x-major, so y+1 is the next index.
func (g *Graph) linkLattice() {
	s := g.settings
	sizeX, sizeY := s.SizeX, s.SizeY
	walk := s.WalkRange()

	try := func(n *Node, idx int) {
		other := g.nodes[idx]
		if common.Dist(n.location, other.location) <= walk {
			n.AddNeighbor(other)
		}
	}

	for i, n := range g.nodes {
		canRight := i%sizeY != sizeY-1
		canLeft := i%sizeY != 0
		canDown := i >= sizeY
		canTop := i < sizeX*sizeY-sizeY

		if canRight {
			try(n, i+1)
		}
		if canLeft {
			try(n, i-1)
		}
		if canTop {
			try(n, i+sizeY)
			if canRight {
				try(n, i+1+sizeY)
			}
			if canLeft {
				try(n, i-1+sizeY)
			}
		}
		if canDown {
			try(n, i-sizeY)
			if canRight {
				try(n, i+1-sizeY)
			}
			if canLeft {
				try(n, i-1-sizeY)
			}
		}
	}
}

// linkByDistance connects every pair of nodes within the walk range, in
// both directions.
func (g *Graph) linkByDistance() {
	walk := g.settings.WalkRange()
	for _, n := range g.nodes {
		for _, other := range g.nodes {
			if other == n {
				continue
			}
			if common.Dist(n.location, other.location) <= walk {
				n.AddNeighbor(other)
				other.AddNeighbor(n)
			}
		}
	}
}
