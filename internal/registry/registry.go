// Package registry is the in-process template catalog the Job Queue
// and Node Heartbeat consume read-only: a lookup from (category, name)
// to a chain blueprint. Blueprints normally arrive from an external
// plugin loader, but the agent needs a contract to find and enumerate
// them against, so this package also ships a runnable default catalog
// (internal/chain's NoopChain and SleepChain) under categories "task"
// and "chain".
package registry

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/chain"
)

// Descriptor is one registered blueprint.
type Descriptor struct {
	Category string
	Name     string
	// Class is the blueprint's class/type name, published as-is in the
	// harvest-templates record's "class" field.
	Class string
	// Config is the blueprint's own default configuration, merged under
	// a task's config at instantiation time (the task's fields win).
	Config  map[string]any
	Factory chain.Factory
}

// key is lowercased so lookups are case-insensitive, matching the
// coordinator's own category/name conventions.
func key(category, name string) string {
	return strings.ToLower(category) + "/" + strings.ToLower(name)
}

// Registry is safe for concurrent Find/FindByCategory/Register calls;
// the Heartbeat reads it every cycle while the Control Surface may
// Register (reload) concurrently.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{descriptors: make(map[string]Descriptor)}
}

// Register adds or replaces a blueprint.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[key(d.Category, d.Name)] = d
}

// Find looks up a blueprint by exact (category, name).
func (r *Registry) Find(category, name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[key(category, name)]
	return d, ok
}

// FindByCategory returns every descriptor whose category matches
// pattern (a glob, e.g. "template_*"), sorted by "<category>/<name>".
// Glob syntax follows path.Match; the patterns the core constructs
// ("template_*", "*", and exact categories such as "chain") are all
// single-segment, which path.Match handles directly since categories
// never contain "/".
func (r *Registry) FindByCategory(pattern string) ([]Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Descriptor
	for _, d := range r.descriptors {
		ok, err := path.Match(pattern, d.Category)
		if err != nil {
			return nil, fmt.Errorf("registry: bad pattern %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, d)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Category+"/"+matched[i].Name < matched[j].Category+"/"+matched[j].Name
	})
	return matched, nil
}

// All returns every registered descriptor, sorted the same way as
// FindByCategory.
func (r *Registry) All() []Descriptor {
	matched, _ := r.FindByCategory("*")
	return matched
}
