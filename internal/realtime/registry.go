package realtime

import "sync"

// registry keeps inbound event handlers keyed by event name.
type registry struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]func([]byte)
}

func newRegistry() *registry {
	return &registry{handlers: map[string]map[int]func([]byte){}}
}

// add registers fn and reports whether it is the first handler for event.
func (r *registry) add(event string, fn func([]byte)) (id int, first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.handlers[event]
	if !ok {
		set = map[int]func([]byte){}
		r.handlers[event] = set
	}
	id = r.nextID
	r.nextID++
	set[id] = fn
	return id, len(set) == 1
}

// remove drops a handler and reports whether event has none left.
func (r *registry) remove(event string, id int) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.handlers[event]
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.handlers, event)
		return true
	}
	return false
}

func (r *registry) events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for e := range r.handlers {
		out = append(out, e)
	}
	return out
}

// dispatch calls every handler for event outside the lock.
func (r *registry) dispatch(event string, payload []byte) int {
	r.mu.RLock()
	fns := make([]func([]byte), 0, len(r.handlers[event]))
	for _, fn := range r.handlers[event] {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()
	for _, fn := range fns {
		fn(payload)
	}
	return len(fns)
}
