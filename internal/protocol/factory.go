// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"sort"
	"sync"

	"printer-service/internal/model"
)

// Registry holds one transport per kind
type Registry struct {
	mu         sync.RWMutex
	transports map[model.TransportKind]Transport
}

// NewRegistry creates a registry with the given transports
func NewRegistry(transports ...Transport) *Registry {
	r := &Registry{transports: make(map[model.TransportKind]Transport)}
	for _, t := range transports {
		r.Register(t)
	}
	return r
}

// Register adds or replaces the transport for its kind
func (r *Registry) Register(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transports[t.Kind()] = t
}

// Get returns the transport serving kind
func (r *Registry) Get(kind model.TransportKind) (Transport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transports[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported transport kind: %s", kind)
	}
	return t, nil
}

// All returns the registered transports ordered by kind
func (r *Registry) All() []Transport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Transport, 0, len(r.transports))
	for _, t := range r.transports {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}
