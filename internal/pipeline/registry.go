package pipeline

import "sync"

// Registry exposes in-flight progress trackers to the HTTP surface, keyed by
// request id. Entries are registered when a run starts and removed when it
// ends; a lookup miss simply means the run is unknown or already over.
type Registry struct {
	mu sync.RWMutex
	m  map[string]*Progress
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]*Progress)}
}

func (r *Registry) Register(id string, p *Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = p
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

func (r *Registry) Lookup(id string) (*Progress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[id]
	return p, ok
}
