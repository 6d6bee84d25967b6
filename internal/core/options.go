package core

import (
	"maps"
	"slices"
)

// ModuleOptions govern how a module is compiled.
type ModuleOptions struct {
	// Formats lists the enabled source formats. Empty enables all.
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty" mapstructure:"formats"`

	// Ignore holds glob patterns; matching sources are not turned into modules.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty" mapstructure:"ignore"`

	// Strict requires modules to evaluate to concrete values.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty" mapstructure:"strict"`
}

// Clone returns a deep copy.
func (o ModuleOptions) Clone() ModuleOptions {
	return ModuleOptions{
		Formats: slices.Clone(o.Formats),
		Ignore:  slices.Clone(o.Ignore),
		Strict:  o.Strict,
	}
}

// FormatEnabled reports whether f may be compiled under these options.
func (o ModuleOptions) FormatEnabled(f Format) bool {
	return len(o.Formats) == 0 || slices.Contains(o.Formats, string(f))
}

// ResolveOptions govern how module identities are located.
type ResolveOptions struct {
	// Extensions are probed in order for extensionless identities.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" mapstructure:"extensions"`

	// Alias maps identity prefixes to replacement prefixes.
	Alias map[string]string `json:"alias,omitempty" yaml:"alias,omitempty" mapstructure:"alias"`

	// Externals are identities (or "prefix/" entries) left to the host; they are ignored.
	Externals []string `json:"externals,omitempty" yaml:"externals,omitempty" mapstructure:"externals"`
}

// Clone returns a deep copy.
func (o ResolveOptions) Clone() ResolveOptions {
	return ResolveOptions{
		Extensions: slices.Clone(o.Extensions),
		Alias:      maps.Clone(o.Alias),
		Externals:  slices.Clone(o.Externals),
	}
}

// WithExternals returns a copy with externals appended, skipping duplicates.
func (o ResolveOptions) WithExternals(externals ...string) ResolveOptions {
	out := o.Clone()
	for _, e := range externals {
		if !slices.Contains(out.Externals, e) {
			out.Externals = append(out.Externals, e)
		}
	}
	return out
}

// WithAlias returns a copy with aliases merged in; later keys win.
func (o ResolveOptions) WithAlias(alias map[string]string) ResolveOptions {
	out := o.Clone()
	if len(alias) == 0 {
		return out
	}
	if out.Alias == nil {
		out.Alias = make(map[string]string, len(alias))
	}
	maps.Copy(out.Alias, alias)
	return out
}
