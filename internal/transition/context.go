package transition

import (
	"context"

	"github.com/opmodel/modpipe/internal/core"
	"github.com/opmodel/modpipe/internal/output"
)

// AssetContext is the immutable configuration a module is processed with.
// Transitions never modify it; ProcessContext builds a new one.
type AssetContext struct {
	transitions    Registry
	compileTime    core.CompileTimeInfo
	moduleOptions  core.ModuleOptions
	resolveOptions core.ResolveOptions
	layer          string
}

// NewAssetContext creates a context. Maps and slices are copied so the caller
// cannot change the context afterwards.
func NewAssetContext(
	transitions Registry,
	compileTime core.CompileTimeInfo,
	moduleOptions core.ModuleOptions,
	resolveOptions core.ResolveOptions,
	layer string,
) *AssetContext {
	return &AssetContext{
		transitions:    transitions,
		compileTime:    compileTime.Clone(),
		moduleOptions:  moduleOptions.Clone(),
		resolveOptions: resolveOptions.Clone(),
		layer:          layer,
	}
}

// Transitions returns the registry of transitions selectable from this context.
func (c *AssetContext) Transitions() Registry { return c.transitions }

// CompileTimeInfo returns a copy of the compile-time info.
func (c *AssetContext) CompileTimeInfo() core.CompileTimeInfo { return c.compileTime.Clone() }

// ModuleOptions returns a copy of the module options.
func (c *AssetContext) ModuleOptions() core.ModuleOptions { return c.moduleOptions.Clone() }

// ResolveOptions returns a copy of the resolve options.
func (c *AssetContext) ResolveOptions() core.ResolveOptions { return c.resolveOptions.Clone() }

// Layer returns the layer tag.
func (c *AssetContext) Layer() string { return c.layer }

type contextIdentity struct {
	Transitions    []string             `json:"transitions"`
	CompileTime    core.CompileTimeInfo `json:"compileTime"`
	ModuleOptions  core.ModuleOptions   `json:"moduleOptions"`
	ResolveOptions core.ResolveOptions  `json:"resolveOptions"`
	Layer          string               `json:"layer"`
}

// Digest returns the content identity of the context. Contexts with equal
// fields and the same registered names have equal digests: the registry is
// identified by its names only, not by what the transitions do.
func (c *AssetContext) Digest() (string, error) {
	return core.Digest(contextIdentity{
		Transitions:    c.transitions.Names(),
		CompileTime:    c.compileTime,
		ModuleOptions:  c.moduleOptions,
		ResolveOptions: c.resolveOptions,
		Layer:          c.layer,
	})
}

// Process runs the pipeline for src without a transition.
func (c *AssetContext) Process(ctx context.Context, src core.Source, ref core.ReferenceType, loader Loader) (core.ProcessResult, error) {
	return Process(ctx, None, src, c, ref, loader)
}

// TransitionedContext pairs a context with the transition selected from its registry.
type TransitionedContext struct {
	// Name is the requested transition name.
	Name string

	// Transition is the resolved transition; None when the name was unknown.
	Transition Transition

	// Found reports whether Name was in the registry.
	Found bool

	ctx *AssetContext
}

// WithTransition selects a transition by name from the context's registry.
// An unknown name is logged and falls back to the untransformed pipeline.
func (c *AssetContext) WithTransition(name string) *TransitionedContext {
	t, ok := c.transitions.Lookup(name)
	if !ok {
		output.Warn("unknown transition, processing without it", "transition", name, "available", c.transitions.Names())
		t = None
	}
	return &TransitionedContext{Name: name, Transition: t, Found: ok, ctx: c}
}

// Context returns the untransitioned context.
func (tc *TransitionedContext) Context() *AssetContext { return tc.ctx }

// Process runs the pipeline for src under the selected transition.
func (tc *TransitionedContext) Process(ctx context.Context, src core.Source, ref core.ReferenceType, loader Loader) (core.ProcessResult, error) {
	return Process(ctx, tc.Transition, src, tc.ctx, ref, loader)
}
