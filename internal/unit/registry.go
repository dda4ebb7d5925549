package unit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the units known to the process. It is built once at startup and handed to
// whatever needs it; there is no package level instance.
type Registry struct {
	mu     sync.RWMutex
	units  []Unit
	byType map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]int)}
}

// Register adds a unit. Two units may not share a type because they would write the same file.
func (r *Registry) Register(u Unit) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid unit: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.byType[u.Type]; exists {
		return fmt.Errorf("unit %q already registered for type %s (by %q)", u.Label, u.Type, r.units[i].Label)
	}
	r.byType[u.Type] = len(r.units)
	r.units = append(r.units, u)
	return nil
}

// MustRegister registers all units and panics on the first error. Intended for static unit
// tables assembled at startup.
func (r *Registry) MustRegister(units ...Unit) {
	for _, u := range units {
		if err := r.Register(u); err != nil {
			panic(err)
		}
	}
}

// Units returns the registered units in processing order: priority ascending, ties by label.
// The order is produced by sorting on label first and then stably on priority.
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	out := make([]Unit, len(r.units))
	copy(out, r.units)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Lookup finds a unit by type or by label (case-insensitive).
func (r *Registry) Lookup(key string) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.byType[key]; ok {
		return r.units[i], true
	}
	for _, u := range r.units {
		if strings.EqualFold(u.Label, key) || strings.EqualFold(u.Type, key) || strings.EqualFold(u.FileName(), key) {
			return u, true
		}
	}
	return Unit{}, false
}

// Count returns the number of registered units.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}
