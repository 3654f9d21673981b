package agent

import "github.com/milk9111/gridnav/common"

// Config holds the per-agent parameters read when a follower is created.
type Config struct {
	RecomputeRate    float32     `yaml:"recompute_rate" json:"recompute_rate"`
	FootOffset       common.Vec3 `yaml:"foot_offset" json:"foot_offset"`
	AcceptanceRadius float32     `yaml:"acceptance_radius" json:"acceptance_radius"`
	RotationSpeed    float32     `yaml:"rotation_speed" json:"rotation_speed"`
	MaxSpeed         float32     `yaml:"max_speed" json:"max_speed"`
	AgentEnabled     bool        `yaml:"agent_enabled" json:"agent_enabled"`
	MovementEnabled  bool        `yaml:"movement_enabled" json:"movement_enabled"`
	RotationEnabled  bool        `yaml:"rotation_enabled" json:"rotation_enabled"`
}

// DefaultConfig is the starting point for decoding: fields missing from a
// document keep these values.
func DefaultConfig() Config {
	return Config{
		RecomputeRate:    0.5,
		AcceptanceRadius: 25,
		RotationSpeed:    5,
		MaxSpeed:         300,
		AgentEnabled:     true,
		MovementEnabled:  true,
		RotationEnabled:  true,
	}
}

func (c Config) Normalize() Config {
	if c.RecomputeRate < 0.05 {
		c.RecomputeRate = 0.05
	}
	c.AcceptanceRadius = common.Clamp(c.AcceptanceRadius, 1, 1000)
	c.RotationSpeed = common.Clamp(c.RotationSpeed, 1, 1000)
	if c.MaxSpeed < 0 {
		c.MaxSpeed = 0
	}
	return c
}
