package transition

import (
	"context"

	"github.com/opmodel/modpipe/internal/core"
	"github.com/opmodel/modpipe/internal/output"
)

// ProcessContext applies t's field hooks to ac and returns a new context.
// Each hook sees only its own field. The registry is carried over unchanged.
func ProcessContext(t Transition, ac *AssetContext) (*AssetContext, error) {
	compileTime, err := t.ProcessCompileTimeInfo(ac.CompileTimeInfo())
	if err != nil {
		return nil, err
	}
	moduleOptions, err := t.ProcessModuleOptions(ac.ModuleOptions())
	if err != nil {
		return nil, err
	}
	resolveOptions, err := t.ProcessResolveOptions(ac.ResolveOptions())
	if err != nil {
		return nil, err
	}
	layer, err := t.ProcessLayer(ac.Layer())
	if err != nil {
		return nil, err
	}
	return NewAssetContext(ac.Transitions(), compileTime, moduleOptions, resolveOptions, layer), nil
}

// Process runs src through t around loader:
//
//  1. ProcessSource
//  2. ProcessContext
//  3. loader.Load with the transitioned context and source
//  4. ProcessModule on a produced module; Ignore is returned as is
//
// The loader and ProcessModule only ever see the transitioned context.
// Errors are returned unchanged. A nil t behaves like None.
func Process(
	ctx context.Context,
	t Transition,
	src core.Source,
	ac *AssetContext,
	ref core.ReferenceType,
	loader Loader,
) (core.ProcessResult, error) {
	if t == nil {
		t = None
	}

	src, err := t.ProcessSource(src)
	if err != nil {
		return core.ProcessResult{}, err
	}

	ac, err = ProcessContext(t, ac)
	if err != nil {
		return core.ProcessResult{}, err
	}

	output.Debug("processing source",
		"source", src.Ident(),
		"layer", ac.Layer(),
		"reference", ref,
	)

	res, err := loader.Load(ctx, ac, src, ref)
	if err != nil {
		return core.ProcessResult{}, err
	}

	m, ok := res.Module()
	if !ok {
		output.Debug("source ignored", "source", src.Ident())
		return res, nil
	}

	m, err = t.ProcessModule(m, ac)
	if err != nil {
		return core.ProcessResult{}, err
	}
	return core.ModuleResult(m), nil
}
