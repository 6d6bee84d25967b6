package core

import (
	"maps"
	"slices"
)

// CompileTimeInfo is the environment a module is compiled against.
// Treat it as a value: the With* helpers return modified copies.
type CompileTimeInfo struct {
	// Environment is the target environment ("node", "browser", "edge", ...).
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty" mapstructure:"environment"`

	// Defines are compile-time constants visible to sources.
	Defines map[string]string `json:"defines,omitempty" yaml:"defines,omitempty" mapstructure:"defines"`
}

// Clone returns a deep copy.
func (c CompileTimeInfo) Clone() CompileTimeInfo {
	return CompileTimeInfo{
		Environment: c.Environment,
		Defines:     maps.Clone(c.Defines),
	}
}

// WithEnvironment returns a copy with the environment replaced.
func (c CompileTimeInfo) WithEnvironment(env string) CompileTimeInfo {
	out := c.Clone()
	out.Environment = env
	return out
}

// WithDefines returns a copy with defines merged in; later keys win.
func (c CompileTimeInfo) WithDefines(defines map[string]string) CompileTimeInfo {
	out := c.Clone()
	if len(defines) == 0 {
		return out
	}
	if out.Defines == nil {
		out.Defines = make(map[string]string, len(defines))
	}
	maps.Copy(out.Defines, defines)
	return out
}

// DefineNames returns the sorted define keys.
func (c CompileTimeInfo) DefineNames() []string {
	return slices.Sorted(maps.Keys(c.Defines))
}
