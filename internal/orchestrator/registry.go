package orchestrator

import (
	"context"
	"sync"
)

type pendingRequest struct {
	cancel    context.CancelFunc
	cancelled bool
}

// Registry maps a pending entry id to its outstanding-request cancellation
// handle. An entry lives from dispatch until settlement; the cancelled flag is
// re-checked on the response path, closing the race where cancellation and
// resolution land at the same time.
type Registry struct {
	mu   sync.Mutex
	reqs map[string]*pendingRequest
}

func NewRegistry() *Registry {
	return &Registry{reqs: make(map[string]*pendingRequest)}
}

func (r *Registry) Attach(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.reqs[id] = &pendingRequest{cancel: cancel}
	r.mu.Unlock()
}

// Cancel requests cancellation of the outstanding call for id. Returns false
// when no call is outstanding.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	p := r.reqs[id]
	if p != nil {
		p.cancelled = true
	}
	r.mu.Unlock()
	if p == nil {
		return false
	}
	p.cancel()
	return true
}

// Detach removes the handle at settlement and reports whether cancellation
// had been requested while the call was in flight.
func (r *Registry) Detach(id string) (wasCancelled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.reqs[id]
	if p == nil {
		return false
	}
	delete(r.reqs, id)
	return p.cancelled
}

// CancelAll is the teardown path.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	pending := make([]*pendingRequest, 0, len(r.reqs))
	for _, p := range r.reqs {
		p.cancelled = true
		pending = append(pending, p)
	}
	r.mu.Unlock()
	for _, p := range pending {
		p.cancel()
	}
}
