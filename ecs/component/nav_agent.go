package component

import (
	"github.com/milk9111/gridnav/agent"
	"github.com/milk9111/gridnav/common"
)

// NavAgent binds a named pawn to its path follower.
type NavAgent struct {
	Name     string
	Follower *agent.Follower
}

var NavAgentComponent = NewComponent[NavAgent]()

// Target is where a nav agent should go: another agent by name, or a fixed
// point when Agent is empty. Issued is cleared to make the agent re-plan.
type Target struct {
	Point  common.Vec3
	Agent  string
	Issued bool
}

var TargetComponent = NewComponent[Target]()
