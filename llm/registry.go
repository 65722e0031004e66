package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds named providers and the primary one.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
}

// NewRegistry creates a registry; the first provider becomes primary.
func NewRegistry(providers ...Provider) *Registry {
	ret := &Registry{providers: map[string]Provider{}}
	for _, p := range providers {
		ret.Register(p)
	}
	return ret
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	if r.primary == "" {
		r.primary = p.Name()
	}
}

// SetPrimary selects the primary provider.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%w: %v", ErrNoProvider, name)
	}
	r.primary = name
	return nil
}

// Primary returns the primary provider.
func (r *Registry) Primary() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[r.primary]; ok {
		return p, nil
	}
	return nil, ErrNoProvider
}

// Lookup returns a provider by name.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoProvider, name)
}

// Names returns registered provider names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.providers))
	for name := range r.providers {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Healthy runs every provider health check and returns the failures by name.
func (r *Registry) Healthy(ctx context.Context) map[string]error {
	ret := map[string]error{}
	for _, name := range r.Names() {
		p, err := r.Lookup(name)
		if err == nil {
			err = p.HealthCheck(ctx)
		}
		ret[name] = err
	}
	return ret
}

// Generate calls the primary provider.
func (r *Registry) Generate(ctx context.Context, prompt string) (*Generation, error) {
	p, err := r.Primary()
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, prompt)
}
