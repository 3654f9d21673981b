package main

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/sim"
	"github.com/spf13/cobra"
)

const showFrame = 33 * time.Millisecond

var (
	styleFloor   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleBlocked = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePath    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleLink    = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleAgent   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// showView is the terminal preview of a running simulation.
type showView struct {
	screen tcell.Screen
	sim    *sim.Sim
	speed  float32
	paused bool
	notice string
}

func runShow(cmd *cobra.Command, args []string) error {
	speed, err := cmd.Flags().GetFloat32("speed")
	if err != nil {
		return fmt.Errorf("failed to read --speed flag: %w", err)
	}
	s, err := openSim(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	v := &showView{screen: screen, sim: s, speed: speed}
	v.run()
	return nil
}

func (v *showView) run() {
	ticker := time.NewTicker(showFrame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	v.draw()
	for {
		select {
		case ev := <-events:
			if !v.handle(ev) {
				return
			}
			v.draw()
		case <-ticker.C:
			if !v.paused {
				v.sim.Step(float32(showFrame.Seconds()) * v.speed)
			}
			v.sim.Events()
			v.draw()
		}
	}
}

// handle applies one input event. It returns false when the view should
// close.
func (v *showView) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			v.paused = !v.paused
		case 'r':
			v.notice = resultNotice("regenerated", v.sim.Regenerate())
		case 's':
			next := navmesh.StrategyRaycast
			if v.sim.Strategy() == navmesh.StrategyRaycast {
				next = navmesh.StrategyGrid
			}
			v.notice = resultNotice("strategy "+next.String(), v.sim.SetStrategy(next))
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func resultNotice(ok string, err error) string {
	if err != nil {
		return err.Error()
	}
	return ok
}

func (v *showView) draw() {
	status := fmt.Sprintf(" %s | %s | t=%.1fs", v.sim.Scene().Name, v.sim.Strategy(), v.sim.Time())
	if v.paused {
		status += " | paused"
	}
	if v.notice != "" {
		status += " | " + v.notice
	}
	status += " | q quit, space pause, r regen, s strategy"
	render(v.screen, v.sim, status)
}

// viewport maps the horizontal plane of a graph onto screen cells, +y up.
type viewport struct {
	minX, minY float32
	scaleX     float32
	scaleY     float32
	w, h       int
}

func newViewport(nodes []*navmesh.Node, w, h int) viewport {
	vp := viewport{w: w, h: h}
	if len(nodes) == 0 || w <= 0 || h <= 0 {
		return vp
	}
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := -minX, -minY
	for _, n := range nodes {
		loc := n.Location()
		minX = min(minX, loc[0])
		minY = min(minY, loc[1])
		maxX = max(maxX, loc[0])
		maxY = max(maxY, loc[1])
	}
	vp.minX, vp.minY = minX, minY
	if maxX > minX {
		vp.scaleX = float32(w-1) / (maxX - minX)
	}
	if maxY > minY {
		vp.scaleY = float32(h-1) / (maxY - minY)
	}
	return vp
}

func (vp viewport) cell(x, y float32) (int, int, bool) {
	cx := int(math.Round(float64((x - vp.minX) * vp.scaleX)))
	cy := vp.h - 1 - int(math.Round(float64((y-vp.minY)*vp.scaleY)))
	return cx, cy, cx >= 0 && cy >= 0 && cx < vp.w && cy < vp.h
}

// render draws the mesh, links, agent routes and agents with a status line
// on the last row.
func render(screen tcell.Screen, s *sim.Sim, status string) {
	screen.Clear()
	w, h := screen.Size()
	if h < 2 {
		screen.Show()
		return
	}
	graph := s.Graph()
	nodes := graph.Nodes()
	vp := newViewport(nodes, w, h-1)

	put := func(x, y float32, r rune, style tcell.Style) {
		if cx, cy, ok := vp.cell(x, y); ok {
			screen.SetContent(cx, cy, r, nil, style)
		}
	}

	for _, n := range nodes {
		loc := n.Location()
		if n.Accessible() {
			put(loc[0], loc[1], '.', styleFloor)
		} else {
			put(loc[0], loc[1], 'x', styleBlocked)
		}
	}
	for _, a := range s.Agents() {
		p := a.Follower.Path()
		if p == nil || p.Completed() {
			continue
		}
		refs := p.Nodes()
		if c := p.Cursor(); c > 0 && c < len(refs) {
			refs = refs[c:]
		}
		for _, ref := range refs {
			if n := graph.Node(ref); n != nil {
				loc := n.Location()
				put(loc[0], loc[1], '*', stylePath)
			}
		}
	}
	for _, l := range s.Linkers() {
		left, right := l.Endpoints()
		put(left[0], left[1], '+', styleLink)
		put(right[0], right[1], '+', styleLink)
	}
	for _, a := range s.Agents() {
		loc := a.Body.Location()
		put(loc[0], loc[1], agentGlyph(a.Name), styleAgent)
	}

	line := []rune(status)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(line) {
			r = line[x]
		}
		screen.SetContent(x, h-1, r, nil, styleStatus)
	}
	screen.Show()
}

func agentGlyph(name string) rune {
	for _, r := range strings.TrimSpace(name) {
		return unicode.ToUpper(r)
	}
	return '@'
}
