// Package scene reads the yaml documents that describe a navigation scene:
// collision geometry, mesh parameters, agents and node links.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/milk9111/gridnav/agent"
	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/navmesh"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound = errors.New("scene: not found")
	ErrInvalid  = errors.New("scene: invalid")
	ErrNoScript = errors.New("scene: no script")
)

// Scene is one navigation scene document.
type Scene struct {
	Name     string      `yaml:"name" json:"name" jsonschema:"required"`
	Layers   []string    `yaml:"layers" json:"layers" jsonschema:"required,description=Layer names; the index is the layer bit"`
	Strategy string      `yaml:"strategy" json:"strategy,omitempty" jsonschema:"enum=grid,enum=raycast,enum=simple,enum=complex"`
	Mesh     MeshSpec    `yaml:"mesh" json:"mesh"`
	Geometry []BoxSpec   `yaml:"geometry" json:"geometry" jsonschema:"required"`
	Agents   []AgentSpec `yaml:"agents" json:"agents,omitempty"`
	Links    []LinkSpec  `yaml:"links" json:"links,omitempty"`
	Script   string      `yaml:"script" json:"script,omitempty" jsonschema:"description=Tengo script run when an agent reaches a linked node"`

	dir      string
	embedded bool
}

// MeshSpec mirrors navmesh.Settings with layer names in place of masks.
type MeshSpec struct {
	Origin            common.Vec3 `yaml:"origin" json:"origin"`
	SizeX             int         `yaml:"size_x" json:"size_x"`
	SizeY             int         `yaml:"size_y" json:"size_y"`
	Gap               float32     `yaml:"gap" json:"gap"`
	Height            float32     `yaml:"height" json:"height"`
	SurfaceHeight     float32     `yaml:"surface_height" json:"surface_height"`
	ObstacleAvoidance float32     `yaml:"obstacle_avoidance" json:"obstacle_avoidance"`
	ExtraWalkStep     float32     `yaml:"extra_walk_step" json:"extra_walk_step"`
	AgentHeight       float32     `yaml:"agent_height" json:"agent_height"`
	AgentWidth        float32     `yaml:"agent_width" json:"agent_width"`
	Ground            []string    `yaml:"ground" json:"ground"`
	Obstacles         []string    `yaml:"obstacles" json:"obstacles,omitempty"`
}

// BoxSpec is a static axis-aligned box on one layer.
type BoxSpec struct {
	Center      common.Vec3 `yaml:"center" json:"center"`
	HalfExtents common.Vec3 `yaml:"half_extents" json:"half_extents"`
	Layer       string      `yaml:"layer" json:"layer" jsonschema:"required"`
}

// AgentSpec spawns one navigating pawn. Speed overrides Config.MaxSpeed when
// set.
type AgentSpec struct {
	Name   string       `yaml:"name" json:"name" jsonschema:"required"`
	Spawn  common.Vec3  `yaml:"spawn" json:"spawn"`
	Speed  float32      `yaml:"speed" json:"speed,omitempty"`
	Config agent.Config `yaml:"config" json:"config"`
	Target *TargetSpec  `yaml:"target" json:"target,omitempty"`
}

// TargetSpec names either a fixed point or another agent to chase.
type TargetSpec struct {
	Point *common.Vec3 `yaml:"point" json:"point,omitempty"`
	Agent string       `yaml:"agent" json:"agent,omitempty"`
}

// LinkSpec joins the nodes closest to Left and Right.
type LinkSpec struct {
	Left  common.Vec3 `yaml:"left" json:"left"`
	Right common.Vec3 `yaml:"right" json:"right"`
	Way   string      `yaml:"way" json:"way,omitempty" jsonschema:"enum=lr,enum=rl,enum=both"`
}

func defaultMesh() MeshSpec {
	s := navmesh.DefaultSettings()
	return MeshSpec{
		Origin:            s.Origin,
		SizeX:             s.SizeX,
		SizeY:             s.SizeY,
		Gap:               s.Gap,
		Height:            s.Height,
		SurfaceHeight:     s.SurfaceHeight,
		ObstacleAvoidance: s.ObstacleAvoidance,
		ExtraWalkStep:     s.ExtraWalkStep,
		AgentHeight:       s.AgentHeight,
		AgentWidth:        s.AgentWidth,
	}
}

// UnmarshalYAML fills agent defaults before decoding so a document only
// needs the fields it changes.
func (a *AgentSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain AgentSpec
	p := plain{Config: agent.DefaultConfig()}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = AgentSpec(p)
	return nil
}

// Parse decodes a scene document. Unknown fields are rejected.
func Parse(data []byte) (*Scene, error) {
	s := &Scene{Strategy: navmesh.StrategyGrid.String(), Mesh: defaultMesh()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("scene: parse: %w", err)
	}
	return s, nil
}

// Load reads a scene from disk. A relative script path resolves against the
// scene's directory.
func Load(filename string) (*Scene, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scene: load %s: %w", filename, ErrNotFound)
		}
		return nil, fmt.Errorf("scene: load %s: %w", filename, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: load %s: %w", filename, err)
	}
	s.dir = filepath.Dir(filename)
	return s, nil
}

// LoadEmbedded reads one of the scenes compiled into the binary.
func LoadEmbedded(name string) (*Scene, error) {
	clean := cleanScenePath(name)
	data, err := FS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("scene: load embedded %s: %w", name, ErrNotFound)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene: load embedded %s: %w", name, err)
	}
	s.dir = path.Dir(clean)
	s.embedded = true
	return s, nil
}

// Open loads name from disk when the file exists and falls back to the
// embedded scenes otherwise.
func Open(name string) (*Scene, error) {
	if _, err := os.Stat(name); err == nil {
		return Load(name)
	}
	return LoadEmbedded(name)
}

// Dir returns the directory the scene was read from, or "" for a scene
// built by Parse.
func (s *Scene) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// IsEmbedded reports whether the scene came from the compiled-in set.
func (s *Scene) IsEmbedded() bool {
	return s != nil && s.embedded
}

// ScriptPath resolves the link script against the scene's directory. It
// returns "" when the scene has no script.
func (s *Scene) ScriptPath() string {
	if s == nil || s.Script == "" {
		return ""
	}
	if s.embedded {
		return path.Join(s.dir, s.Script)
	}
	if filepath.IsAbs(s.Script) {
		return s.Script
	}
	return filepath.Join(s.dir, filepath.FromSlash(s.Script))
}

// ReadScript returns the source of the link script.
func (s *Scene) ReadScript() ([]byte, error) {
	name := s.ScriptPath()
	if name == "" {
		return nil, ErrNoScript
	}
	var (
		data []byte
		err  error
	)
	if s.embedded {
		data, err = FS.ReadFile(name)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("scene: read script %s: %w", s.Script, err)
	}
	return data, nil
}
