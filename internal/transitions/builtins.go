package transitions

import (
	"encoding/json"
	"errors"
	"maps"
	"path"

	"github.com/opmodel/modpipe/internal/core"
	"github.com/opmodel/modpipe/internal/transition"
)

// Built-in transition types.
const (
	TypeLayer       = "layer"
	TypeEnvironment = "environment"
	TypeExternals   = "externals"
	TypeContext     = "context"
	TypeWrap        = "wrap"
)

func init() {
	Register(TypeLayer, LayerFactory)
	Register(TypeEnvironment, EnvironmentFactory)
	Register(TypeExternals, ExternalsFactory)
	Register(TypeContext, ContextFactory)
	Register(TypeWrap, WrapFactory)
}

var contextHooks = []string{"ProcessCompileTimeInfo", "ProcessModuleOptions", "ProcessResolveOptions", "ProcessLayer"}

// LayerRule relabels a layer: Layer replaces it, Suffix is appended to it.
// At most one may be set; neither leaves the layer unchanged.
type LayerRule struct {
	Layer  *string `json:"layer,omitempty"`
	Suffix *string `json:"suffix,omitempty"`
}

var (
	errLayerConflict = errors.New(`"layer" and "suffix" are mutually exclusive`)
	errLayerMissing  = errors.New(`one of "layer" or "suffix" is required`)
)

func (r LayerRule) validate() error {
	if r.Layer != nil && r.Suffix != nil {
		return errLayerConflict
	}
	return nil
}

func (r LayerRule) isSet() bool {
	return r.Layer != nil || r.Suffix != nil
}

func (r LayerRule) apply(layer string) string {
	switch {
	case r.Layer != nil:
		return *r.Layer
	case r.Suffix != nil:
		return layer + *r.Suffix
	default:
		return layer
	}
}

// LayerTransition only relabels the layer.
type LayerTransition struct {
	transition.Defaults
	name string
	rule LayerRule
}

// NewLayerTransition creates a LayerTransition. rule must set exactly one of
// Layer or Suffix.
func NewLayerTransition(name string, rule LayerRule) (*LayerTransition, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}
	if !rule.isSet() {
		return nil, errLayerMissing
	}
	return &LayerTransition{name: name, rule: rule}, nil
}

// LayerFactory is the Factory for TypeLayer.
func LayerFactory(name string, params json.RawMessage) (transition.Transition, error) {
	var rule LayerRule
	if err := decodeParams(TypeLayer, params, &rule); err != nil {
		return nil, err
	}
	return NewLayerTransition(name, rule)
}

// ProcessLayer applies the layer rule.
func (t *LayerTransition) ProcessLayer(layer string) (string, error) {
	return t.rule.apply(layer), nil
}

// Name returns the configured name.
func (t *LayerTransition) Name() string { return t.name }

// Type returns TypeLayer.
func (t *LayerTransition) Type() string { return TypeLayer }

// Hooks returns the overridden hooks.
func (t *LayerTransition) Hooks() []string { return []string{"ProcessLayer"} }

// EnvironmentParams configures an EnvironmentTransition.
type EnvironmentParams struct {
	Environment string            `json:"environment,omitempty"`
	Defines     map[string]string `json:"defines,omitempty"`
	LayerRule
}

// EnvironmentTransition retargets the compile-time environment.
type EnvironmentTransition struct {
	transition.Defaults
	name   string
	params EnvironmentParams
}

// NewEnvironmentTransition creates an EnvironmentTransition.
func NewEnvironmentTransition(name string, p EnvironmentParams) (*EnvironmentTransition, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Environment == "" && len(p.Defines) == 0 {
		return nil, errors.New(`one of "environment" or "defines" is required`)
	}
	p.Defines = maps.Clone(p.Defines)
	return &EnvironmentTransition{name: name, params: p}, nil
}

// EnvironmentFactory is the Factory for TypeEnvironment.
func EnvironmentFactory(name string, params json.RawMessage) (transition.Transition, error) {
	var p EnvironmentParams
	if err := decodeParams(TypeEnvironment, params, &p); err != nil {
		return nil, err
	}
	return NewEnvironmentTransition(name, p)
}

// ProcessCompileTimeInfo overrides the environment when set and merges defines.
func (t *EnvironmentTransition) ProcessCompileTimeInfo(info core.CompileTimeInfo) (core.CompileTimeInfo, error) {
	if t.params.Environment != "" {
		info = info.WithEnvironment(t.params.Environment)
	}
	return info.WithDefines(t.params.Defines), nil
}

// ProcessLayer applies the optional layer rule.
func (t *EnvironmentTransition) ProcessLayer(layer string) (string, error) {
	return t.params.apply(layer), nil
}

// Name returns the configured name.
func (t *EnvironmentTransition) Name() string { return t.name }

// Type returns TypeEnvironment.
func (t *EnvironmentTransition) Type() string { return TypeEnvironment }

// Hooks returns the overridden hooks.
func (t *EnvironmentTransition) Hooks() []string {
	return []string{"ProcessCompileTimeInfo", "ProcessLayer"}
}

// ExternalsParams configures an ExternalsTransition.
type ExternalsParams struct {
	Externals []string          `json:"externals,omitempty"`
	Alias     map[string]string `json:"alias,omitempty"`
	LayerRule
}

// ExternalsTransition adds externals and aliases to the resolve options.
type ExternalsTransition struct {
	transition.Defaults
	name   string
	params ExternalsParams
}

// NewExternalsTransition creates an ExternalsTransition.
func NewExternalsTransition(name string, p ExternalsParams) (*ExternalsTransition, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(p.Externals) == 0 && len(p.Alias) == 0 {
		return nil, errors.New(`one of "externals" or "alias" is required`)
	}
	p.Externals = append([]string(nil), p.Externals...)
	p.Alias = maps.Clone(p.Alias)
	return &ExternalsTransition{name: name, params: p}, nil
}

// ExternalsFactory is the Factory for TypeExternals.
func ExternalsFactory(name string, params json.RawMessage) (transition.Transition, error) {
	var p ExternalsParams
	if err := decodeParams(TypeExternals, params, &p); err != nil {
		return nil, err
	}
	return NewExternalsTransition(name, p)
}

// ProcessResolveOptions appends externals and merges aliases.
func (t *ExternalsTransition) ProcessResolveOptions(opts core.ResolveOptions) (core.ResolveOptions, error) {
	return opts.WithExternals(t.params.Externals...).WithAlias(t.params.Alias), nil
}

// ProcessLayer applies the optional layer rule.
func (t *ExternalsTransition) ProcessLayer(layer string) (string, error) {
	return t.params.apply(layer), nil
}

// Name returns the configured name.
func (t *ExternalsTransition) Name() string { return t.name }

// Type returns TypeExternals.
func (t *ExternalsTransition) Type() string { return TypeExternals }

// Hooks returns the overridden hooks.
func (t *ExternalsTransition) Hooks() []string {
	return []string{"ProcessResolveOptions", "ProcessLayer"}
}

// ContextParams configures a context transition. Omitted fields become zero
// values in the target context.
type ContextParams struct {
	CompileTime    core.CompileTimeInfo `json:"compileTime"`
	ModuleOptions  core.ModuleOptions   `json:"moduleOptions"`
	ResolveOptions core.ResolveOptions  `json:"resolveOptions"`
	Layer          string               `json:"layer"`
}

// ContextFactory is the Factory for TypeContext.
func ContextFactory(_ string, params json.RawMessage) (transition.Transition, error) {
	var p ContextParams
	if err := decodeParams(TypeContext, params, &p); err != nil {
		return nil, err
	}
	return transition.NewContextTransition(p.CompileTime, p.ModuleOptions, p.ResolveOptions, p.Layer), nil
}

// WrapParams configures a WrapTransition.
type WrapParams struct {
	// Wrapper names the wrapping kind, e.g. "client-reference".
	Wrapper string `json:"wrapper"`

	// Banner is prepended to CUE and YAML sources as a comment.
	Banner string `json:"banner,omitempty"`

	LayerRule
}

// WrapTransition wraps every produced module, e.g. to turn server components
// into client references.
type WrapTransition struct {
	transition.Defaults
	name   string
	params WrapParams
}

// NewWrapTransition creates a WrapTransition.
func NewWrapTransition(name string, p WrapParams) (*WrapTransition, error) {
	if p.Wrapper == "" {
		return nil, errors.New(`"wrapper" is required`)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &WrapTransition{name: name, params: p}, nil
}

// WrapFactory is the Factory for TypeWrap.
func WrapFactory(name string, params json.RawMessage) (transition.Transition, error) {
	var p WrapParams
	if err := decodeParams(TypeWrap, params, &p); err != nil {
		return nil, err
	}
	return NewWrapTransition(name, p)
}

// ProcessSource prepends the banner comment. JSON has no comments, so JSON
// sources and sources with unknown extensions pass through unchanged.
func (t *WrapTransition) ProcessSource(src core.Source) (core.Source, error) {
	if t.params.Banner == "" {
		return src, nil
	}
	var marker string
	switch path.Ext(src.Ident()) {
	case ".cue":
		marker = "// "
	case ".yaml", ".yml":
		marker = "# "
	default:
		return src, nil
	}
	return &core.WrappedSource{Inner: src, Prefix: []byte(marker + t.params.Banner + "\n")}, nil
}

// ProcessLayer applies the optional layer rule.
func (t *WrapTransition) ProcessLayer(layer string) (string, error) {
	return t.params.apply(layer), nil
}

// ProcessModule wraps m in the transitioned layer.
func (t *WrapTransition) ProcessModule(m core.Module, ac *transition.AssetContext) (core.Module, error) {
	return core.NewWrappedModule(t.params.Wrapper, m, ac.Layer()), nil
}

// Name returns the configured name.
func (t *WrapTransition) Name() string { return t.name }

// Type returns TypeWrap.
func (t *WrapTransition) Type() string { return TypeWrap }

// Hooks returns the overridden hooks.
func (t *WrapTransition) Hooks() []string {
	hooks := []string{"ProcessLayer", "ProcessModule"}
	if t.params.Banner != "" {
		hooks = append([]string{"ProcessSource"}, hooks...)
	}
	return hooks
}
