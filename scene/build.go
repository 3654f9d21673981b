package scene

import (
	"fmt"

	"github.com/milk9111/gridnav/navmesh"
	"github.com/milk9111/gridnav/spatial"
)

// MaxLayers is the number of layer names a scene may declare.
const MaxLayers = 32

// Mask resolves layer names through the scene's layer table.
func (s *Scene) Mask(names []string) (spatial.LayerMask, error) {
	var mask spatial.LayerMask
	for _, name := range names {
		idx := s.layerIndex(name)
		if idx < 0 {
			return spatial.LayerNone, fmt.Errorf("%w: unknown layer %q", ErrInvalid, name)
		}
		mask |= spatial.Layer(uint(idx))
	}
	return mask, nil
}

func (s *Scene) layerIndex(name string) int {
	for i, l := range s.Layers {
		if l == name {
			return i
		}
	}
	return -1
}

// Settings converts the mesh section into generation settings.
func (s *Scene) Settings() (navmesh.Settings, error) {
	ground, err := s.Mask(s.Mesh.Ground)
	if err != nil {
		return navmesh.Settings{}, fmt.Errorf("scene: mesh ground: %w", err)
	}
	obstacles, err := s.Mask(s.Mesh.Obstacles)
	if err != nil {
		return navmesh.Settings{}, fmt.Errorf("scene: mesh obstacles: %w", err)
	}
	m := s.Mesh
	return navmesh.Settings{
		Origin:            m.Origin,
		SizeX:             m.SizeX,
		SizeY:             m.SizeY,
		Gap:               m.Gap,
		Height:            m.Height,
		SurfaceHeight:     m.SurfaceHeight,
		ObstacleAvoidance: m.ObstacleAvoidance,
		ExtraWalkStep:     m.ExtraWalkStep,
		AgentHeight:       m.AgentHeight,
		AgentWidth:        m.AgentWidth,
		GroundLayers:      ground,
		ObstacleLayers:    obstacles,
	}.Normalize(), nil
}

// MeshStrategy parses the strategy field.
func (s *Scene) MeshStrategy() (navmesh.Strategy, error) {
	st, err := navmesh.ParseStrategy(s.Strategy)
	if err != nil {
		return 0, fmt.Errorf("scene: %w", err)
	}
	return st, nil
}

// LinkWay parses the way of link i.
func (s *Scene) LinkWay(i int) (navmesh.LinkWay, error) {
	if i < 0 || i >= len(s.Links) {
		return 0, fmt.Errorf("%w: link %d out of range", ErrInvalid, i)
	}
	way, err := navmesh.ParseLinkWay(s.Links[i].Way)
	if err != nil {
		return 0, fmt.Errorf("scene: link %d: %w", i, err)
	}
	return way, nil
}

// BuildWorld creates the collision world from the geometry section.
func (s *Scene) BuildWorld() (*spatial.World, error) {
	w := spatial.NewWorld()
	for i, b := range s.Geometry {
		idx := s.layerIndex(b.Layer)
		if idx < 0 {
			return nil, fmt.Errorf("scene: geometry %d: %w: unknown layer %q", i, ErrInvalid, b.Layer)
		}
		w.AddBox(b.Center, b.HalfExtents, spatial.Layer(uint(idx)))
	}
	return w, nil
}
