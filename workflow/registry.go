package workflow

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/routegate/intent"
)

// Registry maps intents onto workflows.
type Registry struct {
	mux       sync.RWMutex
	workflows map[string]Workflow
	routes    map[string]string
	fallback  string
}

// NewRegistry creates a registry; every workflow is routed for the intent
// equal to its name. An empty fallback selects the custom workflow.
func NewRegistry(fallback string, workflows ...Workflow) *Registry {
	if fallback == "" {
		fallback = intent.Custom
	}
	ret := &Registry{
		workflows: make(map[string]Workflow),
		routes:    make(map[string]string),
		fallback:  fallback,
	}
	for _, w := range workflows {
		ret.Register(w)
	}
	return ret
}

// Register adds or replaces a workflow.
func (r *Registry) Register(w Workflow) {
	if w == nil {
		return
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	r.workflows[w.Name()] = w
}

// Route maps an intent onto a registered workflow name.
func (r *Registry) Route(intent, name string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.workflows[name]; !ok {
		return fmt.Errorf("workflow %v not registered", name)
	}
	r.routes[intent] = name
	return nil
}

// Lookup returns a workflow by name.
func (r *Registry) Lookup(name string) Workflow {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.workflows[name]
}

// Select returns the workflow for intent, falling back to the default one.
func (r *Registry) Select(intent string) (Workflow, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	if name, ok := r.routes[intent]; ok {
		if w, ok := r.workflows[name]; ok {
			return w, nil
		}
	}
	if w, ok := r.workflows[intent]; ok {
		return w, nil
	}
	if w, ok := r.workflows[r.fallback]; ok {
		return w, nil
	}
	return nil, ErrNoDefault
}

// Names returns registered workflow names sorted.
func (r *Registry) Names() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Builtin returns the registry with every built-in workflow; generator may be nil.
func Builtin(generator Generator) *Registry {
	return NewRegistry(intent.Custom,
		NewCustom(generator),
		NewLead(),
		NewSales(generator, nil),
		NewSupport(generator),
	)
}
