package core

// ProcessResult is the outcome of one pipeline run: a module, or an
// explicit decision to ignore the source.
type ProcessResult struct {
	module Module
	ignore bool
}

// ModuleResult wraps a produced module.
func ModuleResult(m Module) ProcessResult {
	return ProcessResult{module: m}
}

// IgnoreResult reports that the source should not become a module.
func IgnoreResult() ProcessResult {
	return ProcessResult{ignore: true}
}

// IsIgnore reports whether the result is the Ignore variant.
func (r ProcessResult) IsIgnore() bool {
	return r.ignore
}

// Module returns the produced module. ok is false for Ignore.
func (r ProcessResult) Module() (m Module, ok bool) {
	if r.ignore {
		return nil, false
	}
	return r.module, true
}

// String returns "ignore" or "module(<ident>)".
func (r ProcessResult) String() string {
	if r.ignore {
		return "ignore"
	}
	if r.module == nil {
		return "module(<nil>)"
	}
	return "module(" + r.module.Ident() + ")"
}
