// Package loader provides the default loader the transition pipeline wraps:
// it resolves a source identity, decides whether the source is ignored, and
// compiles CUE, JSON or YAML sources into core.CompiledModule values.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	"github.com/opmodel/modpipe/internal/core"
	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/output"
	"github.com/opmodel/modpipe/internal/transition"
)

// LoadError reports a source that could not be read or compiled.
type LoadError struct {
	Ident string
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Ident, e.Cause)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// UnsupportedFormatError reports a source whose format is unknown or disabled.
type UnsupportedFormatError struct {
	Ident  string
	Format string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("%s: unrecognized source format", e.Ident)
	}
	return fmt.Sprintf("%s: format %q is not enabled", e.Ident, e.Format)
}

// Is makes UnsupportedFormatError match ErrValidation.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == oerrors.ErrValidation
}

// Loader is the default transition.Loader.
type Loader struct {
	// cue.Context is not safe for concurrent use.
	mu     sync.Mutex
	cueCtx *cue.Context
}

var _ transition.Loader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithCueContext sets the CUE context modules are compiled in. Values of
// modules compiled by one Loader can only be unified with each other.
func WithCueContext(c *cue.Context) Option {
	return func(l *Loader) {
		l.cueCtx = c
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{cueCtx: cuecontext.New()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves src under ac and compiles it, or reports it as ignored.
func (l *Loader) Load(ctx context.Context, ac *transition.AssetContext, src core.Source, ref core.ReferenceType) (core.ProcessResult, error) {
	ro := ac.ResolveOptions()
	mo := ac.ModuleOptions()
	ident := src.Ident()

	if isExternal(ident, ro.Externals) {
		output.Debug("external source", "source", ident)
		return core.IgnoreResult(), nil
	}

	resolved := resolve(src, ro)
	if resolved != ident {
		output.Debug("resolved source", "source", ident, "resolved", resolved)
		if isExternal(resolved, ro.Externals) {
			return core.IgnoreResult(), nil
		}
		src = repoint(src, resolved)
	}

	if isIgnored(resolved, mo.Ignore) {
		output.Debug("ignored source", "source", resolved)
		return core.IgnoreResult(), nil
	}

	format, ok := formatOf(resolved)
	if !ok {
		return core.ProcessResult{}, &UnsupportedFormatError{Ident: resolved}
	}
	if !mo.FormatEnabled(format) {
		return core.ProcessResult{}, &UnsupportedFormatError{Ident: resolved, Format: string(format)}
	}

	data, err := src.Content(ctx)
	if err != nil {
		cause := err
		if errors.Is(err, fs.ErrNotExist) {
			cause = fmt.Errorf("%w: %w", oerrors.ErrNotFound, err)
		}
		return core.ProcessResult{}, &LoadError{Ident: resolved, Cause: cause}
	}

	info := ac.CompileTimeInfo()
	value, err := l.compile(resolved, format, data, info, mo.Strict)
	if err != nil {
		return core.ProcessResult{}, &LoadError{Ident: resolved, Cause: fmt.Errorf("%w: %w", oerrors.ErrValidation, err)}
	}

	output.Debug("compiled module",
		"source", resolved,
		"format", format,
		"layer", ac.Layer(),
		"reference", ref,
	)
	return core.ModuleResult(core.NewCompiledModule(resolved, ac.Layer(), format, value, info)), nil
}

// compile evaluates data. Sources see the defines and "environment" as
// top-level references.
func (l *Loader) compile(ident string, format core.Format, data []byte, info core.CompileTimeInfo, strict bool) (cue.Value, error) {
	if format == core.FormatYAML {
		j, err := yaml.YAMLToJSON(data)
		if err != nil {
			return cue.Value{}, fmt.Errorf("converting YAML: %w", err)
		}
		data = j
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	scope := map[string]string{"environment": info.Environment}
	for k, v := range info.Defines {
		scope[k] = v
	}
	scopeValue := l.cueCtx.Encode(scope)
	if err := scopeValue.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("encoding compile-time scope: %w", err)
	}

	v := l.cueCtx.CompileBytes(data, cue.Filename(ident), cue.Scope(scopeValue))
	if err := v.Err(); err != nil {
		return cue.Value{}, err
	}
	if err := v.Validate(cue.Concrete(strict)); err != nil {
		return cue.Value{}, err
	}
	return v, nil
}

// resolve applies the longest matching alias prefix. Extensionless file
// sources are then probed for each configured extension on their filesystem;
// the first existing file wins.
func resolve(src core.Source, ro core.ResolveOptions) string {
	resolved := applyAlias(src.Ident(), ro.Alias)
	if path.Ext(resolved) != "" || len(ro.Extensions) == 0 {
		return resolved
	}
	fsys := fileSystem(src)
	if fsys == nil {
		return resolved
	}
	for _, ext := range ro.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ok, _ := afero.Exists(fsys, resolved+ext); ok {
			return resolved + ext
		}
	}
	return resolved
}

// fileSystem returns the filesystem of a (possibly wrapped) file source.
func fileSystem(src core.Source) afero.Fs {
	switch s := src.(type) {
	case *core.FileSource:
		return s.Fs()
	case *core.WrappedSource:
		return fileSystem(s.Inner)
	default:
		return nil
	}
}

func applyAlias(ident string, alias map[string]string) string {
	prefixes := make([]string, 0, len(alias))
	for p := range alias {
		if strings.HasPrefix(ident, p) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return ident
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	p := prefixes[0]
	return alias[p] + strings.TrimPrefix(ident, p)
}

// isExternal matches exact identities and "prefix/" entries.
func isExternal(ident string, externals []string) bool {
	for _, e := range externals {
		if ident == e || (strings.HasSuffix(e, "/") && strings.HasPrefix(ident, e)) {
			return true
		}
	}
	return false
}

// isIgnored matches glob patterns against the full ident and its base name.
func isIgnored(ident string, patterns []string) bool {
	base := path.Base(ident)
	for _, p := range patterns {
		if ok, _ := path.Match(p, ident); ok {
			return true
		}
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}

func formatOf(ident string) (core.Format, bool) {
	switch strings.ToLower(path.Ext(ident)) {
	case ".cue":
		return core.FormatCUE, true
	case ".json":
		return core.FormatJSON, true
	case ".yaml", ".yml":
		return core.FormatYAML, true
	default:
		return "", false
	}
}

// repoint returns a source reading from newPath. Only file sources (possibly
// wrapped) change where they read from; other sources keep their content
// under the new identity.
func repoint(src core.Source, newPath string) core.Source {
	switch s := src.(type) {
	case *core.FileSource:
		return core.NewFileSource(s.Fs(), newPath)
	case *core.WrappedSource:
		return &core.WrappedSource{Inner: repoint(s.Inner, newPath), Prefix: s.Prefix, Suffix: s.Suffix}
	default:
		return &renamedSource{Source: src, ident: newPath}
	}
}

type renamedSource struct {
	core.Source
	ident string
}

func (s *renamedSource) Ident() string { return s.ident }
