package pathfind

import "github.com/milk9111/gridnav/navmesh"

// Path is an ordered route with a progress cursor. The current node is the
// one being walked to; the last node of the route is never current, reaching
// the one before it completes the path.
type Path struct {
	nodes     []navmesh.NodeRef
	cursor    int
	current   navmesh.NodeRef
	previous  navmesh.NodeRef
	completed bool
}

// NewPath builds a path over nodes and advances it once.
func NewPath(nodes []navmesh.NodeRef) *Path {
	p := &Path{nodes: append([]navmesh.NodeRef(nil), nodes...), cursor: -1}
	p.Next()
	return p
}

// Next advances the cursor and returns the new current node, or the null ref
// once the path is completed.
func (p *Path) Next() navmesh.NodeRef {
	if p == nil {
		return navmesh.NodeRef{}
	}
	p.cursor++
	if p.cursor < len(p.nodes)-1 {
		p.previous = p.current
		p.current = p.nodes[p.cursor]
		return p.current
	}
	switch {
	case !p.current.IsNull():
		p.previous = p.current
	case p.cursor < len(p.nodes):
		p.previous = p.nodes[p.cursor]
	default:
		p.previous = navmesh.NodeRef{}
	}
	p.current = navmesh.NodeRef{}
	p.completed = true
	return p.current
}

// Update splices other behind the current node and rewinds the cursor onto
// it, so the next advance moves into the new route. A path with no current
// node simply restarts on other.
func (p *Path) Update(other *Path) {
	if p == nil {
		return
	}
	var tail []navmesh.NodeRef
	if other != nil {
		tail = other.nodes
	}
	if p.current.IsNull() {
		p.nodes = append([]navmesh.NodeRef(nil), tail...)
		p.cursor = -1
		p.completed = false
		p.Next()
		return
	}
	nodes := make([]navmesh.NodeRef, 0, len(tail)+1)
	nodes = append(nodes, p.current)
	p.nodes = append(nodes, tail...)
	p.cursor = 0
}

// Nodes returns a copy of the route.
func (p *Path) Nodes() []navmesh.NodeRef {
	if p == nil {
		return nil
	}
	return append([]navmesh.NodeRef(nil), p.nodes...)
}

func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.nodes)
}

func (p *Path) Cursor() int {
	if p == nil {
		return -1
	}
	return p.cursor
}

func (p *Path) Current() navmesh.NodeRef {
	if p == nil {
		return navmesh.NodeRef{}
	}
	return p.current
}

func (p *Path) Previous() navmesh.NodeRef {
	if p == nil {
		return navmesh.NodeRef{}
	}
	return p.previous
}

// Completed reports whether the route has been exhausted. A nil path is
// always completed.
func (p *Path) Completed() bool {
	return p == nil || p.completed
}

// PathState is the serialisable form of a Path.
type PathState struct {
	Nodes     []navmesh.NodeRef `yaml:"nodes" json:"nodes"`
	Cursor    int               `yaml:"cursor" json:"cursor"`
	Previous  navmesh.NodeRef   `yaml:"previous,omitempty" json:"previous"`
	Completed bool              `yaml:"completed,omitempty" json:"completed"`
}

func (p *Path) State() PathState {
	if p == nil {
		return PathState{Cursor: -1, Completed: true}
	}
	return PathState{
		Nodes:     p.Nodes(),
		Cursor:    p.cursor,
		Previous:  p.previous,
		Completed: p.completed,
	}
}

// RestorePath rebuilds a path from its state. The cursor is clamped to the
// route; a cursor with no node ahead of it restores as completed.
func RestorePath(s PathState) *Path {
	p := &Path{
		nodes:     append([]navmesh.NodeRef(nil), s.Nodes...),
		cursor:    min(max(s.Cursor, 0), len(s.Nodes)),
		previous:  s.Previous,
		completed: s.Completed,
	}
	if !p.completed && p.cursor < len(p.nodes)-1 {
		p.current = p.nodes[p.cursor]
	} else {
		p.completed = true
	}
	return p
}
