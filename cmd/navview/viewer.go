package main

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/pathfind"
	"github.com/milk9111/gridnav/sim"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

const (
	screenWidth  = 1280
	screenHeight = 720
	panelWidth   = 300
	logLines     = 8
)

var (
	colorBackground = colornames.Darkslategray
	colorFloor      = colornames.Mediumseagreen
	colorBlocked    = colornames.Dimgray
	colorEdge       = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x60}
	colorBox        = colornames.Lightsteelblue
	colorLink       = colornames.Deepskyblue
	colorPath       = colornames.Gold
	colorAgent      = colornames.Crimson
	colorSelected   = colornames.White
)

// viewer is the ebiten game drawing one simulation.
type viewer struct {
	sim      *sim.Sim
	ui       *ebitenui.UI
	panel    *panel
	copyText func([]byte)

	paused   bool
	selected string
	notice   string
	log      []string
}

func newViewer(s *sim.Sim, copyText func([]byte)) *viewer {
	v := &viewer{sim: s, copyText: copyText}
	if agents := s.Agents(); len(agents) > 0 {
		v.selected = agents[0].Name
	}
	v.ui, v.panel = newPanel(v)
	v.drainEvents()
	return v
}

func (v *viewer) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		v.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.regenerate()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		v.cycleStrategy()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		v.copyPath()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		v.selectNext()
	}

	v.ui.Update()
	if !v.paused {
		v.sim.Step(1 / float32(ebiten.TPS()))
	}
	v.drainEvents()
	v.panel.refresh(v)
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	graph := v.sim.Graph()
	proj := newProjection(graph.Settings(), 0, 0, screenWidth-panelWidth, screenHeight)

	for _, box := range v.sim.World().Boxes() {
		lo, hi := box.Min(), box.Max()
		x0, y1 := proj.point(lo)
		x1, y0 := proj.point(hi)
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, colorBox, false)
	}

	nodes := graph.Nodes()
	for _, n := range nodes {
		x0, y0 := proj.point(n.Location())
		for _, ref := range n.Neighbors() {
			if other := graph.Node(ref); other != nil {
				x1, y1 := proj.point(other.Location())
				vector.StrokeLine(screen, x0, y0, x1, y1, 1, colorEdge, true)
			}
		}
	}
	size := max(proj.length(graph.Settings().Gap)/6, 2)
	for _, n := range nodes {
		x, y := proj.point(n.Location())
		c := colorBlocked
		if n.Accessible() {
			c = colorFloor
		}
		vector.FillRect(screen, x-size/2, y-size/2, size, size, c, false)
	}

	for _, l := range v.sim.Linkers() {
		left, right := l.Endpoints()
		x0, y0 := proj.point(left)
		x1, y1 := proj.point(right)
		vector.StrokeLine(screen, x0, y0, x1, y1, 3, colorLink, true)
	}

	for _, a := range v.sim.Agents() {
		if a.Name == v.selected {
			drawRoute(screen, proj, graph, a)
		}
	}
	for _, a := range v.sim.Agents() {
		x, y := proj.point(a.Body.Location())
		r := max(proj.length(a.Follower.Config().AcceptanceRadius)/2, 4)
		if a.Name == v.selected {
			vector.StrokeRect(screen, x-r-2, y-r-2, 2*r+4, 2*r+4, 2, colorSelected, false)
		}
		vector.FillRect(screen, x-r, y-r, 2*r, 2*r, colorAgent, true)
	}

	v.ui.Draw(screen)
}

func drawRoute(screen *ebiten.Image, proj projection, graph *navmesh.Graph, a *sim.Agent) {
	p := a.Follower.Path()
	if p == nil || p.Completed() {
		return
	}
	x0, y0 := proj.point(a.Body.Location())
	refs := p.Nodes()
	if c := p.Cursor(); c > 0 && c < len(refs) {
		refs = refs[c:]
	}
	for _, ref := range refs {
		n := graph.Node(ref)
		if n == nil {
			continue
		}
		x1, y1 := proj.point(n.Location())
		vector.StrokeLine(screen, x0, y0, x1, y1, 2, colorPath, true)
		x0, y0 = x1, y1
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func (v *viewer) togglePause() {
	v.paused = !v.paused
}

func (v *viewer) regenerate() {
	if err := v.sim.Regenerate(); err != nil {
		v.notice = err.Error()
		return
	}
	v.notice = "regenerated"
}

func (v *viewer) cycleStrategy() {
	next := navmesh.StrategyRaycast
	if v.sim.Strategy() == navmesh.StrategyRaycast {
		next = navmesh.StrategyGrid
	}
	if err := v.sim.SetStrategy(next); err != nil {
		v.notice = err.Error()
		return
	}
	v.notice = "strategy " + next.String()
}

func (v *viewer) selectAgent(name string) {
	if _, ok := v.sim.Agent(name); ok {
		v.selected = name
	}
}

func (v *viewer) selectNext() {
	agents := v.sim.Agents()
	for i, a := range agents {
		if a.Name == v.selected {
			v.selected = agents[(i+1)%len(agents)].Name
			return
		}
	}
	if len(agents) > 0 {
		v.selected = agents[0].Name
	}
}

func (v *viewer) copyPath() {
	a, ok := v.sim.Agent(v.selected)
	if !ok {
		v.notice = "no agent selected"
		return
	}
	data, err := routeYAML(a, v.sim.Graph())
	if err != nil {
		slog.Warn("encode route", slog.String("agent", a.Name), slog.Any("err", err))
		v.notice = err.Error()
		return
	}
	if v.copyText != nil {
		v.copyText(data)
	}
	v.notice = "copied route of " + a.Name
}

func (v *viewer) drainEvents() {
	for _, ev := range v.sim.Events() {
		line := fmt.Sprintf("%6.2f %s", ev.Time, ev.Kind)
		if ev.Agent != "" {
			line += " " + ev.Agent
		}
		v.log = append(v.log, line)
	}
	if extra := len(v.log) - logLines; extra > 0 {
		v.log = v.log[extra:]
	}
}

// route is the clipboard form of an agent's current route.
type route struct {
	Agent  string             `yaml:"agent"`
	State  pathfind.PathState `yaml:"state"`
	Points []common.Vec3      `yaml:"points,flow"`
}

func routeYAML(a *sim.Agent, graph *navmesh.Graph) ([]byte, error) {
	r := route{Agent: a.Name, State: a.Follower.Path().State()}
	for _, ref := range r.State.Nodes {
		if n := graph.Node(ref); n != nil {
			r.Points = append(r.Points, n.Location())
		}
	}
	return yaml.Marshal(r)
}
