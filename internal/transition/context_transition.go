package transition

import "github.com/opmodel/modpipe/internal/core"

// ContextTransition moves a module into a fixed context: every field hook
// returns the configured value regardless of its input.
type ContextTransition struct {
	Defaults

	compileTime    core.CompileTimeInfo
	moduleOptions  core.ModuleOptions
	resolveOptions core.ResolveOptions
	layer          string
}

// NewContextTransition creates a ContextTransition.
func NewContextTransition(
	compileTime core.CompileTimeInfo,
	moduleOptions core.ModuleOptions,
	resolveOptions core.ResolveOptions,
	layer string,
) *ContextTransition {
	return &ContextTransition{
		compileTime:    compileTime.Clone(),
		moduleOptions:  moduleOptions.Clone(),
		resolveOptions: resolveOptions.Clone(),
		layer:          layer,
	}
}

// ProcessCompileTimeInfo returns the configured compile-time info.
func (t *ContextTransition) ProcessCompileTimeInfo(core.CompileTimeInfo) (core.CompileTimeInfo, error) {
	return t.compileTime.Clone(), nil
}

// ProcessModuleOptions returns the configured module options.
func (t *ContextTransition) ProcessModuleOptions(core.ModuleOptions) (core.ModuleOptions, error) {
	return t.moduleOptions.Clone(), nil
}

// ProcessResolveOptions returns the configured resolve options.
func (t *ContextTransition) ProcessResolveOptions(core.ResolveOptions) (core.ResolveOptions, error) {
	return t.resolveOptions.Clone(), nil
}

// ProcessLayer returns the configured layer.
func (t *ContextTransition) ProcessLayer(string) (string, error) {
	return t.layer, nil
}
