package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Source is one pluggable provider of a normalized [0,100] reading. A Source
// must be safe for concurrent use and must honor ctx cancellation; the
// aggregator imposes the per-source timeout through ctx.
type Source interface {
	ID() string
	Fetch(ctx context.Context, subject string) (float64, error)
}

// Registry resolves weight-table source ids to implementations.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(s Source) error {
	if s == nil {
		return fmt.Errorf("nil source")
	}
	id := normalizeID(s.ID())
	if id == "" {
		return fmt.Errorf("source id cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("source %s already registered", id)
	}
	r.sources[id] = s
	return nil
}

func (r *Registry) Lookup(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[normalizeID(id)]
	return s, ok
}

// IDs returns registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for id := range r.sources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// clampScore keeps a normalized value inside [0,100].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
