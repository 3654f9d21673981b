package ecs

// System advances one concern of the world by dt seconds of game time.
type System interface {
	Update(w *World, dt float32)
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(w *World, dt float32)

func (f SystemFunc) Update(w *World, dt float32) {
	f(w, dt)
}

// Scheduler runs systems in registration order.
type Scheduler struct {
	systems []System
}

func NewScheduler(systems ...System) *Scheduler {
	s := &Scheduler{}
	for _, sys := range systems {
		s.Add(sys)
	}
	return s
}

func (s *Scheduler) Add(system System) {
	if s == nil || system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

func (s *Scheduler) Update(w *World, dt float32) {
	if s == nil {
		return
	}
	for _, system := range s.systems {
		system.Update(w, dt)
	}
}

func (s *Scheduler) Systems() []System {
	if s == nil {
		return nil
	}
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}
