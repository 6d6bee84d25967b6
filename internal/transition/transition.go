// Package transition implements the module transition pipeline: named
// policies that rewrite how a single module is loaded, compiled and wrapped,
// composed around a default loader.
//
// Hooks must be referentially transparent. The pipeline holds no state of its
// own, so a host engine may memoize any hook or a whole Process call keyed
// on the identity of its inputs (see package memo).
package transition

import (
	"context"

	"github.com/opmodel/modpipe/internal/core"
)

// Transition is a policy applied while processing one module.
//
// Embed Defaults to get identity implementations of every hook except
// ProcessLayer, which each transition must decide for itself: the layer is
// what keeps modules built under different transitions apart.
type Transition interface {
	// ProcessSource rewrites or wraps the source before it reaches the loader.
	ProcessSource(src core.Source) (core.Source, error)

	// ProcessCompileTimeInfo rewrites the compile-time environment.
	ProcessCompileTimeInfo(info core.CompileTimeInfo) (core.CompileTimeInfo, error)

	// ProcessLayer relabels the layer.
	ProcessLayer(layer string) (string, error)

	// ProcessModuleOptions rewrites module build options.
	ProcessModuleOptions(opts core.ModuleOptions) (core.ModuleOptions, error)

	// ProcessResolveOptions rewrites resolve options.
	ProcessResolveOptions(opts core.ResolveOptions) (core.ResolveOptions, error)

	// ProcessModule post-processes a module produced by the loader. ac is the
	// already transitioned context. Never called for an ignored source.
	ProcessModule(m core.Module, ac *AssetContext) (core.Module, error)
}

// Defaults provides identity hooks for everything but ProcessLayer.
type Defaults struct{}

// ProcessSource returns src unchanged.
func (Defaults) ProcessSource(src core.Source) (core.Source, error) { return src, nil }

// ProcessCompileTimeInfo returns info unchanged.
func (Defaults) ProcessCompileTimeInfo(info core.CompileTimeInfo) (core.CompileTimeInfo, error) {
	return info, nil
}

// ProcessModuleOptions returns opts unchanged.
func (Defaults) ProcessModuleOptions(opts core.ModuleOptions) (core.ModuleOptions, error) {
	return opts, nil
}

// ProcessResolveOptions returns opts unchanged.
func (Defaults) ProcessResolveOptions(opts core.ResolveOptions) (core.ResolveOptions, error) {
	return opts, nil
}

// ProcessModule returns m unchanged.
func (Defaults) ProcessModule(m core.Module, _ *AssetContext) (core.Module, error) { return m, nil }

type identity struct{ Defaults }

func (identity) ProcessLayer(layer string) (string, error) { return layer, nil }

// None is the transition used when no transition is selected. Every hook,
// including ProcessLayer, is the identity.
var None Transition = identity{}

// Loader turns a source into a module, or decides to ignore it.
type Loader interface {
	Load(ctx context.Context, ac *AssetContext, src core.Source, ref core.ReferenceType) (core.ProcessResult, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ac *AssetContext, src core.Source, ref core.ReferenceType) (core.ProcessResult, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, ac *AssetContext, src core.Source, ref core.ReferenceType) (core.ProcessResult, error) {
	return f(ctx, ac, src, ref)
}
