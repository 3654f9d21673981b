package navmesh

import (
	"fmt"
	"strings"

	"github.com/milk9111/gridnav/common"
	"github.com/milk9111/gridnav/spatial"
)

// Settings are the static parameters read at generation time. Lengths are in
// world units.
type Settings struct {
	Origin            common.Vec3       `yaml:"origin" json:"origin"`
	SizeX             int               `yaml:"size_x" json:"size_x"`
	SizeY             int               `yaml:"size_y" json:"size_y"`
	Gap               float32           `yaml:"gap" json:"gap"`
	Height            float32           `yaml:"height" json:"height"`
	SurfaceHeight     float32           `yaml:"surface_height" json:"surface_height"`
	ObstacleAvoidance float32           `yaml:"obstacle_avoidance" json:"obstacle_avoidance"`
	ExtraWalkStep     float32           `yaml:"extra_walk_step" json:"extra_walk_step"`
	AgentHeight       float32           `yaml:"agent_height" json:"agent_height"`
	AgentWidth        float32           `yaml:"agent_width" json:"agent_width"`
	GroundLayers      spatial.LayerMask `yaml:"ground_layers" json:"ground_layers"`
	ObstacleLayers    spatial.LayerMask `yaml:"obstacle_layers" json:"obstacle_layers"`
}

func DefaultSettings() Settings {
	return Settings{
		SizeX:             15,
		SizeY:             15,
		Gap:               50,
		Height:            150,
		SurfaceHeight:     5,
		ObstacleAvoidance: 25,
		ExtraWalkStep:     30,
		AgentHeight:       100,
		AgentWidth:        40,
	}
}

// Normalize clamps every parameter into its supported range.
func (s Settings) Normalize() Settings {
	s.SizeX = clampInt(s.SizeX, 1, 500)
	s.SizeY = clampInt(s.SizeY, 1, 500)
	s.Gap = common.Clamp(s.Gap, 1, 1000)
	s.Height = common.Clamp(s.Height, 1, 5000)
	s.SurfaceHeight = common.Clamp(s.SurfaceHeight, 1, 100)
	s.ObstacleAvoidance = common.Clamp(s.ObstacleAvoidance, 0.01, 10000)
	s.ExtraWalkStep = common.Clamp(s.ExtraWalkStep, 1, 1000)
	s.AgentHeight = common.Clamp(s.AgentHeight, 1, 1000)
	s.AgentWidth = common.Clamp(s.AgentWidth, 1, 1000)
	return s
}

// WalkRange is the largest distance between two nodes that still get an edge.
func (s Settings) WalkRange() float32 {
	return s.Gap + s.ExtraWalkStep
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Strategy selects how nodes are sampled.
type Strategy int

const (
	StrategyGrid Strategy = iota
	StrategyRaycast
)

func (s Strategy) String() string {
	switch s {
	case StrategyGrid:
		return "grid"
	case StrategyRaycast:
		return "raycast"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "grid" or "raycast", case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grid", "simple", "":
		return StrategyGrid, nil
	case "raycast", "complex":
		return StrategyRaycast, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	switch s {
	case StrategyGrid, StrategyRaycast:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
}

func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
