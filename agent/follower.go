// Package agent drives a movable pawn along routes found on a navigation
// graph, replanning on a fixed interval while it follows one.
package agent

import (
	"log/slog"
	"math"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/event"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/pathfind"
	"github.com/milk9111/gridnav/timer"
)

// Pawn is the movable body a follower steers.
type Pawn interface {
	Location() common.Vec3
	AddMovementInput(dir common.Vec3)
	Velocity() common.Vec3
	Yaw() float32
	SetYaw(deg float32)
}

// Actor is a target that can move.
type Actor interface {
	Location() common.Vec3
}

// Timers schedules the recompute callback.
type Timers interface {
	After(delay float32, fn func()) timer.Handle
	Cancel(h timer.Handle) bool
}

type State int

const (
	Idle State = iota
	Following
)

func (s State) String() string {
	if s == Following {
		return "following"
	}
	return "idle"
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

// Follower moves a pawn along a path toward a point or another actor.
type Follower struct {
	pawn   Pawn
	graph  *navmesh.Graph
	search *pathfind.AStar
	timers Timers
	cfg    Config
	logger *slog.Logger

	targetActor    Actor
	targetLocation common.Vec3
	hasTarget      bool

	following bool
	path      *pathfind.Path
	recompute timer.Handle

	agentEnabled    bool
	movementEnabled bool
	rotationEnabled bool

	genSub                  event.Handle
	completedSub, failedSub event.Handle

	OnPathReceived *event.Delegate[*pathfind.Path]
	OnPathFailed   *event.Delegate[pathfind.Failure]
	OnArrived      *event.Delegate[navmesh.NodeRef]
	OnCompleted    *event.Delegate[navmesh.NodeRef]
}

func NewFollower(pawn Pawn, graph *navmesh.Graph, timers Timers, cfg Config, opts ...Option) *Follower {
	o := options{logger: slog.Default().With(slog.String("component", "agent"))}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	cfg = cfg.Normalize()
	f := &Follower{
		pawn:            pawn,
		timers:          timers,
		cfg:             cfg,
		logger:          o.logger,
		agentEnabled:    cfg.AgentEnabled,
		movementEnabled: cfg.MovementEnabled,
		rotationEnabled: cfg.RotationEnabled,
		OnPathReceived:  &event.Delegate[*pathfind.Path]{},
		OnPathFailed:    &event.Delegate[pathfind.Failure]{},
		OnArrived:       &event.Delegate[navmesh.NodeRef]{},
		OnCompleted:     &event.Delegate[navmesh.NodeRef]{},
	}
	f.search = pathfind.NewAStar(graph, pathfind.WithLogger(o.logger))
	f.completedSub = f.search.OnCompleted.Add(f.onPathReceived)
	f.failedSub = f.search.OnFailed.Add(f.onPathFailed)
	f.SetGraph(graph)
	return f
}

func (f *Follower) Config() Config {
	if f == nil {
		return Config{}
	}
	return f.cfg
}

// Search exposes the follower's search engine for instrumentation.
func (f *Follower) Search() *pathfind.AStar {
	if f == nil {
		return nil
	}
	return f.search
}

func (f *Follower) Graph() *navmesh.Graph {
	if f == nil {
		return nil
	}
	return f.graph
}

// SetGraph stops following and searches g from now on.
func (f *Follower) SetGraph(g *navmesh.Graph) {
	if f == nil {
		return
	}
	f.stopFollowing()
	f.path = nil
	if f.graph != nil {
		f.graph.OnGenerated.Remove(f.genSub)
		f.genSub = 0
	}
	f.graph = g
	f.search.SetGraph(g)
	if g != nil {
		f.genSub = g.OnGenerated.Add(f.onGenerated)
	}
}

// Location is the pawn position plus the configured foot offset.
func (f *Follower) Location() common.Vec3 {
	if f == nil || f.pawn == nil {
		return common.Vec3{}
	}
	return f.pawn.Location().Add(f.cfg.FootOffset)
}

func (f *Follower) State() State {
	if f == nil || !f.following {
		return Idle
	}
	return Following
}

func (f *Follower) Path() *pathfind.Path {
	if f == nil {
		return nil
	}
	return f.path
}

// TargetNode is the node currently walked to, null when idle.
func (f *Follower) TargetNode() navmesh.NodeRef {
	if f == nil || !f.following {
		return navmesh.NodeRef{}
	}
	return f.path.Current()
}

func (f *Follower) PreviousNode() navmesh.NodeRef {
	if f == nil {
		return navmesh.NodeRef{}
	}
	return f.path.Previous()
}

// Target returns the point the follower is heading for.
func (f *Follower) Target() (common.Vec3, bool) {
	if f == nil || !f.hasTarget {
		return common.Vec3{}, false
	}
	if f.targetActor != nil {
		return f.targetActor.Location(), true
	}
	return f.targetLocation, true
}

// MoveToLocation searches a route to p.
func (f *Follower) MoveToLocation(p common.Vec3) {
	if f == nil || f.graph == nil || f.search == nil {
		return
	}
	f.targetActor = nil
	f.targetLocation = p
	f.hasTarget = true
	f.search.ComputePath(f.graph.ClosestNode(f.Location()), f.graph.ClosestNode(p))
}

// MoveToActor searches a route to a, then keeps tracking it on every
// recompute.
func (f *Follower) MoveToActor(a Actor) {
	if f == nil || f.graph == nil || f.search == nil || a == nil {
		return
	}
	f.targetActor = a
	f.targetLocation = common.Vec3{}
	f.hasTarget = true
	f.search.ComputePath(f.graph.ClosestNode(f.Location()), f.graph.ClosestNode(a.Location()))
}

// Recompute replans from the current node to the target's latest position.
func (f *Follower) Recompute() {
	if f == nil || !f.following || f.graph == nil {
		return
	}
	target, _ := f.Target()
	f.search.ComputePath(f.path.Current(), f.graph.ClosestNode(target))
}

// SetAgentEnabled gates Update as a whole.
func (f *Follower) SetAgentEnabled(v bool) {
	if f != nil {
		f.agentEnabled = v
	}
}

func (f *Follower) SetMovementEnabled(v bool) {
	if f != nil {
		f.movementEnabled = v
	}
}

func (f *Follower) SetRotationEnabled(v bool) {
	if f != nil {
		f.rotationEnabled = v
	}
}

func (f *Follower) ResumeAgent()    { f.SetAgentEnabled(true) }
func (f *Follower) StopAgent()      { f.SetAgentEnabled(false) }
func (f *Follower) ResumeMovement() { f.SetMovementEnabled(true) }
func (f *Follower) StopMovement()   { f.SetMovementEnabled(false) }
func (f *Follower) ResumeRotation() { f.SetRotationEnabled(true) }
func (f *Follower) StopRotation()   { f.SetRotationEnabled(false) }

func (f *Follower) AgentEnabled() bool    { return f != nil && f.agentEnabled }
func (f *Follower) MovementEnabled() bool { return f != nil && f.movementEnabled }
func (f *Follower) RotationEnabled() bool { return f != nil && f.rotationEnabled }

// Update steers the pawn for one tick.
func (f *Follower) Update(dt float32) {
	if f == nil || f.pawn == nil || !f.agentEnabled {
		return
	}
	if !f.following || f.path.Completed() {
		return
	}
	f.updateMovement()
	f.updateRotation(dt)
}

func (f *Follower) updateMovement() {
	if !f.movementEnabled || !f.following {
		return
	}
	node := f.graph.Node(f.path.Current())
	if node == nil {
		return
	}
	loc := f.Location()
	f.pawn.AddMovementInput(common.SafeNormal(node.Location().Sub(loc)))
	if common.Dist(loc, node.Location()) < f.cfg.AcceptanceRadius {
		f.advance()
	}
}

func (f *Follower) updateRotation(dt float32) {
	if !f.rotationEnabled {
		return
	}
	v := common.Flat(f.pawn.Velocity())
	if v.Len() <= 1e-6 {
		return
	}
	current := f.pawn.Yaw()
	target := common.YawDegrees(v)
	speed := f.cfg.RotationSpeed * float32(math.Abs(float64(current-target)))
	f.pawn.SetYaw(common.InterpYawConstant(current, target, dt, speed))
}

// advance moves past the node just reached and tells it who passed.
func (f *Follower) advance() {
	if f.path.Next().IsNull() {
		f.stopFollowing()
	}
	passed := f.path.Previous()
	if n := f.graph.Node(passed); n != nil {
		n.PassedBy(f)
	}
	f.OnArrived.Broadcast(passed)
	if !f.following {
		f.logger.Debug("path completed", slog.String("last", passed.String()))
		f.OnCompleted.Broadcast(passed)
	}
}

func (f *Follower) onPathReceived(p *pathfind.Path) {
	if f.following {
		f.path.Update(p)
	} else {
		f.path = p
		f.following = true
	}
	f.scheduleRecompute()
	f.OnPathReceived.Broadcast(f.path)

	if f.path.Completed() {
		f.stopFollowing()
		f.OnCompleted.Broadcast(f.path.Previous())
	}
}

func (f *Follower) onPathFailed(fail pathfind.Failure) {
	f.stopFollowing()
	f.logger.Debug("no path",
		slog.String("start", fail.Start.String()),
		slog.String("end", fail.End.String()),
	)
	f.OnPathFailed.Broadcast(fail)
}

// onGenerated drops the stale route and searches again on the fresh graph.
func (f *Follower) onGenerated(navmesh.Generated) {
	wasFollowing := f.following
	f.stopFollowing()
	f.path = nil
	if !wasFollowing || !f.hasTarget {
		return
	}
	if f.targetActor != nil {
		f.MoveToActor(f.targetActor)
		return
	}
	f.MoveToLocation(f.targetLocation)
}

func (f *Follower) scheduleRecompute() {
	if f.timers == nil {
		return
	}
	f.timers.Cancel(f.recompute)
	f.recompute = f.timers.After(f.cfg.RecomputeRate, f.Recompute)
}

func (f *Follower) stopFollowing() {
	f.following = false
	if f.timers != nil && f.recompute != 0 {
		f.timers.Cancel(f.recompute)
	}
	f.recompute = 0
}

// Close detaches the follower from its graph and search engine.
func (f *Follower) Close() {
	if f == nil {
		return
	}
	f.stopFollowing()
	if f.graph != nil {
		f.graph.OnGenerated.Remove(f.genSub)
		f.genSub = 0
	}
	f.search.OnCompleted.Remove(f.completedSub)
	f.search.OnFailed.Remove(f.failedSub)
}
