// Package timer schedules deferred single-shot callbacks on game time. Time
// only moves when Advance is called, so callbacks run on the caller's
// goroutine inside the tick that crosses their due time.
package timer

// Handle identifies a scheduled callback. The zero Handle is never active.
type Handle uint64

type entry struct {
	handle Handle
	due    float64
	fn     func()
}

// Manager owns the pending timers of one simulation.
type Manager struct {
	now     float64
	next    Handle
	pending []entry
}

func NewManager() *Manager {
	return &Manager{}
}

// Now returns the accumulated game time in seconds.
func (m *Manager) Now() float64 {
	if m == nil {
		return 0
	}
	return m.now
}

// After schedules fn to run once delay seconds from now.
func (m *Manager) After(delay float32, fn func()) Handle {
	if m == nil || fn == nil {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	m.next++
	m.pending = append(m.pending, entry{handle: m.next, due: m.now + float64(delay), fn: fn})
	return m.next
}

// Cancel drops a pending timer. It reports whether the timer was pending.
func (m *Manager) Cancel(h Handle) bool {
	if m == nil || h == 0 {
		return false
	}
	for i, e := range m.pending {
		if e.handle == h {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Active reports whether h is still waiting to fire.
func (m *Manager) Active(h Handle) bool {
	if m == nil || h == 0 {
		return false
	}
	for _, e := range m.pending {
		if e.handle == h {
			return true
		}
	}
	return false
}

func (m *Manager) Pending() int {
	if m == nil {
		return 0
	}
	return len(m.pending)
}

// Advance moves time forward by dt and fires every timer that became due,
// earliest first. Timers scheduled by a callback wait for the next Advance;
// timers cancelled by a callback do not fire.
func (m *Manager) Advance(dt float32) {
	if m == nil {
		return
	}
	if dt > 0 {
		m.now += float64(dt)
	}

	last := m.next
	for {
		idx := -1
		for i, e := range m.pending {
			if e.handle > last || e.due > m.now {
				continue
			}
			if idx < 0 || e.due < m.pending[idx].due {
				idx = i
			}
		}
		if idx < 0 {
			return
		}
		e := m.pending[idx]
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		e.fn()
	}
}
