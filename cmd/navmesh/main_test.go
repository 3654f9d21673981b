package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/pathfind"
	"github.com/milk9111/gridnav/scene"
	"github.com/milk9111/gridnav/sim"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateJSON(t *testing.T) {
	out, err := execute(t, "generate", "corridor", "--json")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	var got generateSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	want := generateSummary{Scene: "corridor", Strategy: "grid", Nodes: 18, Accessible: 12, Links: 1, Linked: 1, Agents: 1}
	got.Edges = 0
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestGenerateStrategyOverride(t *testing.T) {
	out, err := execute(t, "generate", "corridor", "--strategy", "raycast")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "scene corridor (raycast)") {
		t.Fatalf("expected raycast summary, got %q", out)
	}

	if _, err := execute(t, "generate", "corridor", "--strategy", "bogus"); !errors.Is(err, navmesh.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	if _, err := execute(t, "generate", "no-such-scene"); !errors.Is(err, scene.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPathWritesState(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "path.yaml")
	out, err := execute(t, "path", "corridor", "--from", "0,0,5", "--to", "250,100,5", "--json", "--state", statePath)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	var res pathResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if !res.Found || len(res.Nodes) < 2 {
		t.Fatalf("expected a route, got %+v", res)
	}
	if res.Nodes[0].Ref != res.From.Ref || res.Nodes[len(res.Nodes)-1].Ref != res.To.Ref {
		t.Fatalf("expected route from %v to %v, got %+v", res.From.Ref, res.To.Ref, res.Nodes)
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("state file missing: %v", err)
	}
	var state pathfind.PathState
	if err := yaml.Unmarshal(data, &state); err != nil {
		t.Fatalf("invalid state yaml: %v", err)
	}
	if len(state.Nodes) != len(res.Nodes) || state.Cursor != 0 {
		t.Fatalf("expected %d nodes at cursor 0, got %+v", len(res.Nodes), state)
	}
}

func TestPathRejectsBadPoints(t *testing.T) {
	if _, err := execute(t, "path", "corridor", "--from", "0,x,5", "--to", "1,1,1"); err == nil {
		t.Fatalf("expected invalid point error")
	}
	if _, err := execute(t, "path", "corridor", "--to", "1,1,1"); err == nil {
		t.Fatalf("expected missing --from error")
	}
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		in      string
		want    common.Vec3
		wantErr bool
	}{
		{in: "1,2,3", want: common.Vec3{1, 2, 3}},
		{in: " 1.5, -2 ,0", want: common.Vec3{1.5, -2, 0}},
		{in: "4,5", want: common.Vec3{4, 5, 0}},
		{in: "", wantErr: true},
		{in: "1,2,3,4", wantErr: true},
		{in: "a,b,c", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVec3(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSimulateJSON(t *testing.T) {
	out, err := execute(t, "simulate", "corridor", "--ticks", "300", "--json")
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	var got simulateSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if got.Ticks != 300 || got.Time <= 0 {
		t.Fatalf("expected 300 ticks of simulated time, got %+v", got)
	}
	if got.Events["link-reached"] != 1 || got.Events["completed"] != 1 {
		t.Fatalf("expected link and completion events, got %v", got.Events)
	}
	if len(got.Agents) != 1 || got.Agents[0].Name != "courier" || got.Agents[0].State != "idle" {
		t.Fatalf("expected idle courier, got %+v", got.Agents)
	}
}

func TestSimulateRejectsBadStep(t *testing.T) {
	if _, err := execute(t, "simulate", "corridor", "--dt", "0"); err == nil {
		t.Fatalf("expected error for zero dt")
	}
}

func TestSchemaOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.schema.json")
	if _, err := execute(t, "schema", "--out", path); err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("schema file missing: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not json: %v", err)
	}
	if doc["title"] != "Navigation Scene" {
		t.Fatalf("expected schema title, got %v", doc["title"])
	}
}

func TestScenesList(t *testing.T) {
	out, err := execute(t, "scenes")
	if err != nil {
		t.Fatalf("scenes failed: %v", err)
	}
	for _, name := range []string{"corridor", "platforms", "pursuit"} {
		if !strings.Contains(out, name+"\n") {
			t.Fatalf("expected %s in %q", name, out)
		}
	}
}

func TestWatchRejectsEmbeddedScene(t *testing.T) {
	if _, err := execute(t, "watch", "corridor"); !errors.Is(err, errEmbeddedScene) {
		t.Fatalf("expected errEmbeddedScene, got %v", err)
	}
}

func TestReloadScene(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("..", "..", "scene", "scenes", "corridor.yaml"))
	if err != nil {
		t.Fatalf("read corridor: %v", err)
	}
	doc := strings.Replace(string(src), "script: ../scripts/teleport.tengo", "", 1)
	filename := filepath.Join(dir, "corridor.yaml")
	if err := os.WriteFile(filename, []byte(doc), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	sc, err := scene.Load(filename)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := sim.New(sc)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()

	renamed := strings.Replace(doc, "name: corridor", "name: renamed", 1)
	if err := os.WriteFile(filename, []byte(renamed), 0o644); err != nil {
		t.Fatalf("rewrite scene: %v", err)
	}
	if err := reloadScene(s, filename); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s.Scene().Name != "renamed" {
		t.Fatalf("expected renamed scene, got %q", s.Scene().Name)
	}

	if err := os.WriteFile(filename, []byte("name: [broken"), 0o644); err != nil {
		t.Fatalf("rewrite scene: %v", err)
	}
	if err := reloadScene(s, filename); err == nil {
		t.Fatalf("expected reload of a broken scene to fail")
	}
	if s.Scene().Name != "renamed" {
		t.Fatalf("expected previous scene to stay, got %q", s.Scene().Name)
	}
}

func newShowView(t *testing.T) (*showView, tcell.SimulationScreen) {
	t.Helper()
	sc, err := scene.LoadEmbedded("corridor")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := sim.New(sc)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(s.Close)

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(60, 12)
	return &showView{screen: screen, sim: s, speed: 1}, screen
}

func screenText(screen tcell.Screen) string {
	w, h := screen.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mainc, _, _, _ := screen.GetContent(x, y)
			if mainc == 0 {
				mainc = ' '
			}
			b.WriteRune(mainc)
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func TestRenderCorridor(t *testing.T) {
	v, screen := newShowView(t)
	v.draw()

	text := screenText(screen)
	for _, want := range []string{"C", "+", ".", "x", "corridor | grid"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q on screen:\n%s", want, text)
		}
	}
}

func TestShowKeys(t *testing.T) {
	v, _ := newShowView(t)

	if !v.handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)) || !v.paused {
		t.Fatalf("expected space to pause")
	}
	if !v.handle(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone)) {
		t.Fatalf("expected s to keep the view open")
	}
	if v.sim.Strategy() != navmesh.StrategyRaycast {
		t.Fatalf("expected raycast strategy, got %v", v.sim.Strategy())
	}
	if !v.handle(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)) || v.notice != "regenerated" {
		t.Fatalf("expected regenerate notice, got %q", v.notice)
	}
	if v.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatalf("expected q to close the view")
	}
	if v.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatalf("expected escape to close the view")
	}
}

func TestAgentGlyph(t *testing.T) {
	tests := map[string]rune{"courier": 'C', " hound": 'H', "": '@'}
	for name, want := range tests {
		if got := agentGlyph(name); got != want {
			t.Fatalf("expected %q for %q, got %q", want, name, got)
		}
	}
}
