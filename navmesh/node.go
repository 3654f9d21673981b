package navmesh

import (
	"fmt"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/event"
)

// NodeRef is a handle to a node inside a Graph. The zero value is the null
// ref. A ref goes stale when its graph regenerates.
type NodeRef struct {
	Index int32  `yaml:"index" json:"index"`
	Gen   uint32 `yaml:"gen" json:"gen"`
}

func (r NodeRef) IsNull() bool {
	return r.Gen == 0
}

func (r NodeRef) String() string {
	if r.IsNull() {
		return "node(null)"
	}
	return fmt.Sprintf("node(%d@%d)", r.Index, r.Gen)
}

// Traveler is anything moving along the graph with a current target node.
type Traveler interface {
	TargetNode() NodeRef
}

// PassedBy is broadcast when a traveler reaches a node.
type PassedBy struct {
	Node  NodeRef
	Agent Traveler
}

// Node is one sampled point of the navigation mesh.
type Node struct {
	ref        NodeRef
	location   common.Vec3
	accessible bool
	neighbors  []NodeRef

	OnPassedBy *event.Delegate[PassedBy]
}

func newNode(ref NodeRef, location common.Vec3) *Node {
	return &Node{
		ref:        ref,
		location:   location,
		OnPassedBy: &event.Delegate[PassedBy]{},
	}
}

func (n *Node) Ref() NodeRef {
	if n == nil {
		return NodeRef{}
	}
	return n.ref
}

func (n *Node) Location() common.Vec3 {
	if n == nil {
		return common.Vec3{}
	}
	return n.location
}

func (n *Node) Accessible() bool {
	return n != nil && n.accessible
}

func (n *Node) setAccessible(v bool) {
	n.accessible = v
}

// Neighbors returns a copy of the neighbor list in insertion order.
func (n *Node) Neighbors() []NodeRef {
	if n == nil || len(n.neighbors) == 0 {
		return nil
	}
	out := make([]NodeRef, len(n.neighbors))
	copy(out, n.neighbors)
	return out
}

func (n *Node) HasNeighbor(ref NodeRef) bool {
	if n == nil {
		return false
	}
	for _, r := range n.neighbors {
		if r == ref {
			return true
		}
	}
	return false
}

// AddNeighbor adds a one-way edge to other. Inaccessible endpoints, self
// edges and duplicates are ignored. It reports whether an edge was added.
func (n *Node) AddNeighbor(other *Node) bool {
	if n == nil || other == nil || n == other {
		return false
	}
	if !n.accessible || !other.accessible || n.HasNeighbor(other.ref) {
		return false
	}
	n.neighbors = append(n.neighbors, other.ref)
	return true
}

// RemoveNeighbor drops the edge to other if present.
func (n *Node) RemoveNeighbor(other *Node) bool {
	if n == nil || other == nil {
		return false
	}
	for i, r := range n.neighbors {
		if r == other.ref {
			n.neighbors = append(n.neighbors[:i], n.neighbors[i+1:]...)
			return true
		}
	}
	return false
}

// PassedBy notifies listeners that agent reached this node.
func (n *Node) PassedBy(agent Traveler) {
	if n == nil {
		return
	}
	n.OnPassedBy.Broadcast(PassedBy{Node: n.ref, Agent: agent})
}
