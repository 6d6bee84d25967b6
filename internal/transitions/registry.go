// Package transitions provides the built-in configurable transitions and the
// factory registry that turns config entries into a transition.Registry.
package transitions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/opmodel/modpipe/internal/core"
	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/transition"
)

// Factory creates a transition from its configured name and raw parameters.
// A nil params means no parameters were given.
type Factory func(name string, params json.RawMessage) (transition.Transition, error)

var factories = map[string]Factory{}

// Register registers a factory under a transition type. Registering the same
// type twice replaces the earlier factory.
func Register(typ string, f Factory) {
	factories[typ] = f
}

// Factories returns the registered transition types, sorted.
func Factories() []string {
	return slices.Sorted(maps.Keys(factories))
}

// New creates a transition of the given type.
func New(typ, name string, params json.RawMessage) (transition.Transition, error) {
	f, ok := factories[typ]
	if !ok {
		return nil, fmt.Errorf("transition %q: unknown type %q (valid: %v): %w", name, typ, Factories(), oerrors.ErrValidation)
	}
	t, err := f(name, params)
	if err != nil {
		return nil, fmt.Errorf("transition %q: %w: %w", name, oerrors.ErrValidation, err)
	}
	return t, nil
}

// Spec is one configured transition.
type Spec struct {
	Name       string          `json:"name" yaml:"name" mapstructure:"name"`
	Type       string          `json:"type" yaml:"type" mapstructure:"type"`
	Parameters json.RawMessage `json:"parameters,omitempty" yaml:"-" mapstructure:"-"`
}

// Key identifies the transition s builds: its name plus a digest of its type
// and parameters. Specs with equal keys build equivalent transitions, so the
// key can stand in for the transition in cache keys.
func (s Spec) Key() (string, error) {
	d, err := core.Digest(struct {
		Type       string          `json:"type"`
		Parameters json.RawMessage `json:"parameters"`
	}{s.Type, s.Parameters})
	if err != nil {
		return "", fmt.Errorf("transition %q: %w", s.Name, err)
	}
	return s.Name + "@" + d, nil
}

// Build creates a registry holding one transition per spec. Each transition
// is wrapped with Guard.
func Build(specs []Spec) (transition.Registry, error) {
	byName := make(map[string]transition.Transition, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return transition.Registry{}, fmt.Errorf("transitions[%d]: name is required: %w", i, oerrors.ErrValidation)
		}
		if _, dup := byName[s.Name]; dup {
			return transition.Registry{}, fmt.Errorf("transitions[%d]: duplicate name %q: %w", i, s.Name, oerrors.ErrValidation)
		}
		t, err := New(s.Type, s.Name, s.Parameters)
		if err != nil {
			return transition.Registry{}, err
		}
		byName[s.Name] = Guard(s.Name, t)
	}
	return transition.NewRegistry(byName), nil
}

// Describer is implemented by transitions that can list the hooks they override.
type Describer interface {
	Type() string
	Hooks() []string
}

// Describe returns the type and overridden hooks of t, or "custom" when t
// does not implement Describer.
func Describe(t transition.Transition) (typ string, hooks []string) {
	t = Unguard(t)
	if d, ok := t.(Describer); ok {
		return d.Type(), d.Hooks()
	}
	if _, ok := t.(*transition.ContextTransition); ok {
		return TypeContext, contextHooks
	}
	return "custom", nil
}

// decodeParams unmarshals params into v, rejecting unknown fields.
func decodeParams(typ string, params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse the parameters of the '%s' transition - %w", typ, err)
	}
	return nil
}
