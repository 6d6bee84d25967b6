package transition

import (
	"maps"
	"slices"
)

// Registry maps transition names to transitions. It is immutable; the zero
// value is the empty registry. A name is the transition's identity in context
// digests and cache keys, so callers that cache across registries must not
// reuse a name for a different transition.
type Registry struct {
	byName map[string]Transition
}

// NewRegistry creates a registry from byName. The map is copied.
func NewRegistry(byName map[string]Transition) Registry {
	if len(byName) == 0 {
		return Registry{}
	}
	return Registry{byName: maps.Clone(byName)}
}

// EmptyRegistry returns the registry with no transitions.
func EmptyRegistry() Registry {
	return Registry{}
}

// Lookup returns the transition registered under name. A miss is not an
// error; callers decide what absence means.
func (r Registry) Lookup(name string) (Transition, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Len returns the number of registered transitions.
func (r Registry) Len() int {
	return len(r.byName)
}

// Names returns the registered names, sorted.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.byName))
}
