package system

import (
	"github.com/milk9111/gridnav/ecs"
	"github.com/milk9111/gridnav/timer"
)

// TimerSystem advances game time. Deferred callbacks such as path recompute
// run from here.
type TimerSystem struct {
	timers *timer.Manager
}

func NewTimerSystem(timers *timer.Manager) *TimerSystem {
	return &TimerSystem{timers: timers}
}

func (s *TimerSystem) Update(_ *ecs.World, dt float32) {
	if s == nil {
		return
	}
	s.timers.Advance(dt)
}
