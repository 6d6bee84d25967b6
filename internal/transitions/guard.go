package transitions

import (
	"github.com/opmodel/modpipe/internal/core"
	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/transition"
)

// guarded attributes hook failures to the configured transition and hook.
type guarded struct {
	name  string
	inner transition.Transition
}

var _ transition.Transition = (*guarded)(nil)

// Guard wraps t so that every hook error is reported as an
// errors.ErrTransition naming the transition and the failing hook.
func Guard(name string, t transition.Transition) transition.Transition {
	if g, ok := t.(*guarded); ok {
		t = g.inner
	}
	return &guarded{name: name, inner: t}
}

// Unguard returns the transition behind Guard, or t itself.
func Unguard(t transition.Transition) transition.Transition {
	if g, ok := t.(*guarded); ok {
		return g.inner
	}
	return t
}

func (g *guarded) wrap(hook string, err error) error {
	return oerrors.NewTransitionError(g.name, hook, err)
}

func (g *guarded) ProcessSource(src core.Source) (core.Source, error) {
	out, err := g.inner.ProcessSource(src)
	if err != nil {
		return nil, g.wrap("ProcessSource", err)
	}
	return out, nil
}

func (g *guarded) ProcessCompileTimeInfo(info core.CompileTimeInfo) (core.CompileTimeInfo, error) {
	out, err := g.inner.ProcessCompileTimeInfo(info)
	if err != nil {
		return core.CompileTimeInfo{}, g.wrap("ProcessCompileTimeInfo", err)
	}
	return out, nil
}

func (g *guarded) ProcessModuleOptions(opts core.ModuleOptions) (core.ModuleOptions, error) {
	out, err := g.inner.ProcessModuleOptions(opts)
	if err != nil {
		return core.ModuleOptions{}, g.wrap("ProcessModuleOptions", err)
	}
	return out, nil
}

func (g *guarded) ProcessResolveOptions(opts core.ResolveOptions) (core.ResolveOptions, error) {
	out, err := g.inner.ProcessResolveOptions(opts)
	if err != nil {
		return core.ResolveOptions{}, g.wrap("ProcessResolveOptions", err)
	}
	return out, nil
}

func (g *guarded) ProcessLayer(layer string) (string, error) {
	out, err := g.inner.ProcessLayer(layer)
	if err != nil {
		return "", g.wrap("ProcessLayer", err)
	}
	return out, nil
}

func (g *guarded) ProcessModule(m core.Module, ac *transition.AssetContext) (core.Module, error) {
	out, err := g.inner.ProcessModule(m, ac)
	if err != nil {
		return nil, g.wrap("ProcessModule", err)
	}
	return out, nil
}
