package core

import (
	"cuelang.org/go/cue"
)

// Module is a compiled build unit ready for graph linking.
type Module interface {
	// Ident is the resolved identity of the module.
	Ident() string

	// Layer is the layer the module was compiled in.
	Layer() string
}

// Format is the source language a module was compiled from.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// CompiledModule is produced by the default loader.
type CompiledModule struct {
	ident  string
	layer  string
	format Format

	// Value is the evaluated CUE value of the module.
	Value cue.Value

	// CompileTime is the compile-time info the module was compiled with.
	CompileTime CompileTimeInfo
}

// NewCompiledModule creates a CompiledModule.
func NewCompiledModule(ident, layer string, format Format, value cue.Value, info CompileTimeInfo) *CompiledModule {
	return &CompiledModule{
		ident:       ident,
		layer:       layer,
		format:      format,
		Value:       value,
		CompileTime: info.Clone(),
	}
}

// Ident returns the module identity.
func (m *CompiledModule) Ident() string { return m.ident }

// Layer returns the module layer.
func (m *CompiledModule) Layer() string { return m.layer }

// Format returns the source format.
func (m *CompiledModule) Format() Format { return m.format }

// WrappedModule wraps another module, e.g. as a client reference proxy.
type WrappedModule struct {
	// Wrapper names the kind of wrapping ("client-reference", ...).
	Wrapper string

	// Inner is the wrapped module.
	Inner Module

	layer string
}

// NewWrappedModule wraps inner. The wrapper lives in the given layer.
func NewWrappedModule(wrapper string, inner Module, layer string) *WrappedModule {
	return &WrappedModule{Wrapper: wrapper, Inner: inner, layer: layer}
}

// Ident returns "<wrapper>:<inner ident>".
func (m *WrappedModule) Ident() string {
	return m.Wrapper + ":" + m.Inner.Ident()
}

// Layer returns the wrapper's layer.
func (m *WrappedModule) Layer() string { return m.layer }

// Unwrap returns the innermost non-wrapped module.
func Unwrap(m Module) Module {
	for {
		w, ok := m.(*WrappedModule)
		if !ok {
			return m
		}
		m = w.Inner
	}
}
