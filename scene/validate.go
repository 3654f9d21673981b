package scene

import (
	"errors"
	"fmt"

	"github.com/milk9111/gridnav/navmesh"
)

// Validate reports every problem in the document at once. Each problem wraps
// ErrInvalid.
func (s *Scene) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil scene", ErrInvalid)
	}
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if s.Name == "" {
		bad("missing name")
	}
	if len(s.Layers) > MaxLayers {
		bad("%d layers, at most %d", len(s.Layers), MaxLayers)
	}
	layers := make(map[string]bool, len(s.Layers))
	for _, l := range s.Layers {
		if l == "" {
			bad("empty layer name")
		} else if layers[l] {
			bad("duplicate layer %q", l)
		}
		layers[l] = true
	}
	for _, name := range s.Mesh.Ground {
		if !layers[name] {
			bad("mesh ground: unknown layer %q", name)
		}
	}
	for _, name := range s.Mesh.Obstacles {
		if !layers[name] {
			bad("mesh obstacles: unknown layer %q", name)
		}
	}
	if _, err := navmesh.ParseStrategy(s.Strategy); err != nil {
		bad("strategy %q", s.Strategy)
	}

	if len(s.Geometry) == 0 {
		bad("no geometry")
	}
	for i, b := range s.Geometry {
		if !layers[b.Layer] {
			bad("geometry %d: unknown layer %q", i, b.Layer)
		}
	}

	agents := make(map[string]bool, len(s.Agents))
	for _, a := range s.Agents {
		if a.Name == "" {
			bad("agent without name")
			continue
		}
		if agents[a.Name] {
			bad("duplicate agent %q", a.Name)
		}
		agents[a.Name] = true
	}
	for _, a := range s.Agents {
		if a.Target == nil {
			continue
		}
		switch {
		case a.Target.Point != nil && a.Target.Agent != "":
			bad("agent %q: target has both point and agent", a.Name)
		case a.Target.Point == nil && a.Target.Agent == "":
			bad("agent %q: empty target", a.Name)
		case a.Target.Agent == a.Name:
			bad("agent %q: targets itself", a.Name)
		case a.Target.Agent != "" && !agents[a.Target.Agent]:
			bad("agent %q: unknown target agent %q", a.Name, a.Target.Agent)
		}
	}

	for i, l := range s.Links {
		if _, err := navmesh.ParseLinkWay(l.Way); err != nil {
			bad("link %d: way %q", i, l.Way)
		}
	}
	return errors.Join(errs...)
}
