package system

import (
	"github.com/milk9111/gridnav/ecs"
	"github.com/milk9111/gridnav/ecs/component"
)

// NavAgentSystem issues pending move requests and ticks every follower.
type NavAgentSystem struct{}

func NewNavAgentSystem() *NavAgentSystem {
	return &NavAgentSystem{}
}

func (s *NavAgentSystem) Update(w *ecs.World, dt float32) {
	if w == nil {
		return
	}

	bodies := make(map[string]*component.Body)
	ecs.ForEach2(w, component.NavAgentComponent.Kind(), component.BodyComponent.Kind(), func(_ ecs.Entity, nav *component.NavAgent, body *component.Body) {
		if nav.Name != "" {
			bodies[nav.Name] = body
		}
	})

	ecs.ForEach2(w, component.NavAgentComponent.Kind(), component.TargetComponent.Kind(), func(_ ecs.Entity, nav *component.NavAgent, target *component.Target) {
		if target.Issued || nav.Follower == nil {
			return
		}
		if target.Agent == "" {
			nav.Follower.MoveToLocation(target.Point)
			target.Issued = true
			return
		}
		if body, ok := bodies[target.Agent]; ok {
			nav.Follower.MoveToActor(body)
			target.Issued = true
		}
	})

	ecs.ForEach(w, component.NavAgentComponent.Kind(), func(_ ecs.Entity, nav *component.NavAgent) {
		nav.Follower.Update(dt)
	})
}
