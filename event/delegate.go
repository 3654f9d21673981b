package event

// Handle identifies a subscription on a Delegate. The zero Handle is never
// returned by Add.
type Handle uint64

// Delegate is a multicast callback list. Subscribers run synchronously in
// registration order.
type Delegate[T any] struct {
	next     Handle
	handlers []subscriber[T]
}

type subscriber[T any] struct {
	handle Handle
	fn     func(T)
}

// Add registers fn and returns a handle for Remove. A nil fn is ignored and
// yields the zero Handle.
func (d *Delegate[T]) Add(fn func(T)) Handle {
	if d == nil || fn == nil {
		return 0
	}
	d.next++
	d.handlers = append(d.handlers, subscriber[T]{handle: d.next, fn: fn})
	return d.next
}

// Remove unregisters the subscription. It reports whether it was present.
func (d *Delegate[T]) Remove(h Handle) bool {
	if d == nil || h == 0 {
		return false
	}
	for i, s := range d.handlers {
		if s.handle != h {
			continue
		}
		handlers := make([]subscriber[T], 0, len(d.handlers)-1)
		handlers = append(handlers, d.handlers[:i]...)
		d.handlers = append(handlers, d.handlers[i+1:]...)
		return true
	}
	return false
}

// Broadcast calls every subscriber with v. Subscribers added or removed
// during the broadcast take effect on the next one.
func (d *Delegate[T]) Broadcast(v T) {
	if d == nil || len(d.handlers) == 0 {
		return
	}
	handlers := d.handlers
	for _, s := range handlers {
		s.fn(v)
	}
}

func (d *Delegate[T]) Len() int {
	if d == nil {
		return 0
	}
	return len(d.handlers)
}

func (d *Delegate[T]) Clear() {
	if d == nil {
		return
	}
	d.handlers = nil
}
