// Package sim assembles a scene into a steppable simulation: collision world,
// navigation graph, node links, link script and an ECS world of agents.
package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/milk9111/gridnav/agent"
	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/ecs"
	"github.com/milk9111/gridnav/ecs/component"
	"github.com/milk9111/gridnav/ecs/system"
	"github.com/milk9111/gridnav/event"
	"github.com/milk9111/gridnav/metrics"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/pathfind"
	"github.com/milk9111/gridnav/scene"
	"github.com/milk9111/gridnav/script"
	"github.com/milk9111/gridnav/spatial"
	"github.com/milk9111/gridnav/timer"
)

var ErrNilScene = errors.New("sim: nil scene")

type EventKind string

const (
	EventGenerated   EventKind = "generated"
	EventPathFound   EventKind = "path-found"
	EventPathFailed  EventKind = "path-failed"
	EventArrived     EventKind = "arrived"
	EventCompleted   EventKind = "completed"
	EventLinkReached EventKind = "link-reached"
	EventScriptError EventKind = "script-error"
)

// Event is one notable thing that happened during a step.
type Event struct {
	Kind   EventKind
	Agent  string
	Node   navmesh.NodeRef
	Detail string
	Time   float64
}

// Agent is one spawned pawn with its follower.
type Agent struct {
	Name     string
	Entity   ecs.Entity
	Body     *component.Body
	Follower *agent.Follower
}

type options struct {
	logger   *slog.Logger
	metrics  bool
	strategy *navmesh.Strategy
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics reports generations and searches to the metrics package.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}

// WithStrategy overrides the scene's generation strategy.
func WithStrategy(s navmesh.Strategy) Option {
	return func(o *options) {
		o.strategy = &s
	}
}

// Sim owns everything built from one scene. It is single-threaded: call its
// methods from one goroutine.
type Sim struct {
	opts   options
	logger *slog.Logger
	events *event.Queue[Event]
	cur    *instance
}

// instance is the state built from one scene. Reload swaps instances so a
// failed reload leaves the running one untouched.
type instance struct {
	opts   options
	logger *slog.Logger
	events *event.Queue[Event]

	scene    *scene.Scene
	strategy navmesh.Strategy
	world    *spatial.World
	graph    *navmesh.Graph
	linkers  []*navmesh.Linker
	script   *script.LinkScript

	ecs    *ecs.World
	sched  *ecs.Scheduler
	timers *timer.Manager
	agents []*Agent

	closers []func()
}

// New validates sc and builds a simulation from it. The mesh is generated
// before New returns.
func New(sc *scene.Scene, opts ...Option) (*Sim, error) {
	o := options{logger: slog.Default().With(slog.String("component", "sim"))}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	s := &Sim{opts: o, logger: o.logger, events: &event.Queue[Event]{}}
	inst, err := s.instantiate(sc)
	if err != nil {
		return nil, err
	}
	s.cur = inst
	return s, nil
}

func (s *Sim) instantiate(sc *scene.Scene) (*instance, error) {
	inst := &instance{opts: s.opts, logger: s.logger, events: s.events}
	if err := inst.build(sc); err != nil {
		inst.teardown()
		return nil, err
	}
	return inst, nil
}

func (s *instance) build(sc *scene.Scene) error {
	if sc == nil {
		return ErrNilScene
	}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	settings, err := sc.Settings()
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	strategy, err := sc.MeshStrategy()
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if s.opts.strategy != nil {
		strategy = *s.opts.strategy
	}
	world, err := sc.BuildWorld()
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}

	s.scene = sc
	s.strategy = strategy
	s.world = world
	s.timers = timer.NewManager()
	s.graph = navmesh.NewGraph(settings, world, navmesh.WithLogger(s.logger.With(slog.String("scene", sc.Name))))
	genSub := s.graph.OnGenerated.Add(s.onGenerated)
	s.closers = append(s.closers, func() { s.graph.OnGenerated.Remove(genSub) })

	if err := s.graph.Generate(strategy); err != nil {
		return fmt.Errorf("sim: generate %s: %w", sc.Name, err)
	}

	if sc.Script != "" {
		src, err := sc.ReadScript()
		if err != nil {
			return fmt.Errorf("sim: %w", err)
		}
		ls, err := script.Compile(sc.Script, src, script.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("sim: %w", err)
		}
		s.script = ls
	}

	// Links subscribe to regeneration before any follower does, so a
	// follower re-planning after a regeneration already sees the links.
	for i, spec := range sc.Links {
		way, err := sc.LinkWay(i)
		if err != nil {
			return fmt.Errorf("sim: %w", err)
		}
		l := navmesh.NewLinker(s.graph, spec.Left, spec.Right, way, navmesh.WithLogger(s.logger))
		if !l.Init() {
			s.logger.Warn("node link not established", slog.Int("link", i))
		}
		sub := l.OnLinkedNodeReached.Add(s.onLinkReached)
		s.closers = append(s.closers, func() {
			l.OnLinkedNodeReached.Remove(sub)
			l.Close()
		})
		s.linkers = append(s.linkers, l)
	}

	s.ecs = ecs.NewWorld()
	s.sched = ecs.NewScheduler(
		system.NewNavAgentSystem(),
		system.NewMovementSystem(),
		system.NewTimerSystem(s.timers),
	)
	for _, spec := range sc.Agents {
		if err := s.spawn(spec); err != nil {
			return err
		}
	}
	return nil
}

func (s *instance) spawn(spec scene.AgentSpec) error {
	e := ecs.CreateEntity(s.ecs)
	cfg := spec.Config
	if spec.Speed > 0 {
		cfg.MaxSpeed = spec.Speed
	}
	cfg = cfg.Normalize()
	body := &component.Body{Position: spec.Spawn, MaxSpeed: cfg.MaxSpeed}
	f := agent.NewFollower(body, s.graph, s.timers, cfg, agent.WithLogger(s.logger.With(slog.String("agent", spec.Name))))
	a := &Agent{Name: spec.Name, Entity: e, Body: body, Follower: f}

	if err := ecs.Add(s.ecs, e, component.BodyComponent.Kind(), body); err != nil {
		return fmt.Errorf("sim: spawn %s: %w", spec.Name, err)
	}
	if err := ecs.Add(s.ecs, e, component.NavAgentComponent.Kind(), &component.NavAgent{Name: spec.Name, Follower: f}); err != nil {
		return fmt.Errorf("sim: spawn %s: %w", spec.Name, err)
	}
	if spec.Target != nil {
		target := &component.Target{Agent: spec.Target.Agent}
		if spec.Target.Point != nil {
			target.Point = *spec.Target.Point
		}
		if err := ecs.Add(s.ecs, e, component.TargetComponent.Kind(), target); err != nil {
			return fmt.Errorf("sim: spawn %s: %w", spec.Name, err)
		}
	}

	s.watchAgent(a)
	s.agents = append(s.agents, a)
	return nil
}

func (s *instance) watchAgent(a *Agent) {
	f := a.Follower
	received := f.OnPathReceived.Add(func(p *pathfind.Path) {
		s.push(Event{Kind: EventPathFound, Agent: a.Name, Node: p.Current(), Detail: fmt.Sprintf("%d nodes", p.Len())})
	})
	failed := f.OnPathFailed.Add(func(fail pathfind.Failure) {
		s.push(Event{Kind: EventPathFailed, Agent: a.Name, Node: fail.End, Detail: fmt.Sprintf("expanded %d", fail.Expanded)})
	})
	arrived := f.OnArrived.Add(func(ref navmesh.NodeRef) {
		s.push(Event{Kind: EventArrived, Agent: a.Name, Node: ref})
	})
	completed := f.OnCompleted.Add(func(ref navmesh.NodeRef) {
		s.push(Event{Kind: EventCompleted, Agent: a.Name, Node: ref})
	})
	var searched event.Handle
	if s.opts.metrics {
		searched = f.Search().OnSearched.Add(func(st pathfind.Stats) {
			metrics.ObserveSearch(st.OK, st.Expanded, st.Duration)
		})
	}
	s.closers = append(s.closers, func() {
		f.OnPathReceived.Remove(received)
		f.OnPathFailed.Remove(failed)
		f.OnArrived.Remove(arrived)
		f.OnCompleted.Remove(completed)
		f.Search().OnSearched.Remove(searched)
		f.Close()
	})
}

func (s *instance) onGenerated(ev navmesh.Generated) {
	if s.opts.metrics {
		metrics.ObserveGeneration(ev.Strategy.String(), ev.Nodes, ev.Accessible, ev.Duration)
	}
	s.push(Event{
		Kind:   EventGenerated,
		Detail: fmt.Sprintf("%s: %d nodes, %d accessible, %d edges", ev.Strategy, ev.Nodes, ev.Accessible, ev.Edges),
	})
}

func (s *instance) onLinkReached(ev navmesh.LinkReached) {
	a := s.agentFor(ev.Agent)
	name := ""
	if a != nil {
		name = a.Name
	}
	s.push(Event{Kind: EventLinkReached, Agent: name, Node: ev.Node, Detail: fmt.Sprint(ev.Destination)})
	if s.script == nil || a == nil {
		return
	}
	err := s.script.Run(agentEnv{a}, script.Event{Agent: name, Node: ev.Node.Index, Destination: ev.Destination})
	if err != nil {
		s.logger.Error("link script failed", slog.String("agent", name), slog.Any("err", err))
		s.push(Event{Kind: EventScriptError, Agent: name, Node: ev.Node, Detail: err.Error()})
	}
}

func (s *instance) agentFor(t navmesh.Traveler) *Agent {
	for _, a := range s.agents {
		if navmesh.Traveler(a.Follower) == t {
			return a
		}
	}
	return nil
}

func (s *instance) push(ev Event) {
	ev.Time = s.timers.Now()
	s.events.Push(ev)
	s.logger.Debug("sim event",
		slog.String("kind", string(ev.Kind)),
		slog.String("agent", ev.Agent),
		slog.String("node", ev.Node.String()),
		slog.String("detail", ev.Detail),
	)
}

// agentEnv lets a link script act on the agent that reached the link.
type agentEnv struct {
	a *Agent
}

func (e agentEnv) Teleport(p common.Vec3) {
	e.a.Body.Teleport(p)
}

func (e agentEnv) Stop() {
	e.a.Follower.StopAgent()
}

// Step advances the simulation by dt seconds.
func (s *Sim) Step(dt float32) {
	if s == nil || s.cur == nil {
		return
	}
	s.cur.sched.Update(s.cur.ecs, dt)
}

// Regenerate rebuilds the mesh with the current strategy. Links re-resolve
// and following agents re-plan.
func (s *Sim) Regenerate() error {
	if s == nil || s.cur == nil {
		return ErrNilScene
	}
	if err := s.cur.graph.Generate(s.cur.strategy); err != nil {
		return fmt.Errorf("sim: regenerate: %w", err)
	}
	return nil
}

// SetStrategy switches the generation strategy and regenerates. The old
// strategy is restored when generation fails.
func (s *Sim) SetStrategy(st navmesh.Strategy) error {
	if s == nil || s.cur == nil {
		return ErrNilScene
	}
	prev := s.cur.strategy
	s.cur.strategy = st
	if err := s.Regenerate(); err != nil {
		s.cur.strategy = prev
		return err
	}
	s.opts.strategy = &st
	return nil
}

// Reload replaces the scene and restarts simulated time. The running
// simulation is kept when sc fails validation or generation.
func (s *Sim) Reload(sc *scene.Scene) error {
	if s == nil {
		return ErrNilScene
	}
	next, err := s.instantiate(sc)
	if err != nil {
		return err
	}
	if s.cur != nil {
		s.cur.teardown()
	}
	s.cur = next
	s.logger.Info("scene reloaded", slog.String("scene", sc.Name))
	return nil
}

// Close detaches every subscription and destroys the agents.
func (s *Sim) Close() {
	if s == nil || s.cur == nil {
		return
	}
	s.cur.teardown()
}

func (s *instance) teardown() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	if s.ecs != nil {
		ecs.Clear(s.ecs)
	}
}

func (s *Sim) Scene() *scene.Scene        { return s.cur.scene }
func (s *Sim) Strategy() navmesh.Strategy { return s.cur.strategy }
func (s *Sim) World() *spatial.World      { return s.cur.world }
func (s *Sim) Graph() *navmesh.Graph      { return s.cur.graph }
func (s *Sim) Script() *script.LinkScript { return s.cur.script }
func (s *Sim) Entities() *ecs.World       { return s.cur.ecs }

func (s *Sim) Linkers() []*navmesh.Linker {
	return append([]*navmesh.Linker(nil), s.cur.linkers...)
}

func (s *Sim) Agents() []*Agent {
	return append([]*Agent(nil), s.cur.agents...)
}

// Agent finds an agent by name.
func (s *Sim) Agent(name string) (*Agent, bool) {
	for _, a := range s.cur.agents {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Time is the simulated time in seconds since the scene was loaded.
func (s *Sim) Time() float64 {
	if s == nil || s.cur == nil {
		return 0
	}
	return s.cur.timers.Now()
}

// Events drains the events queued since the last call.
func (s *Sim) Events() []Event {
	if s == nil {
		return nil
	}
	return s.events.Drain()
}
