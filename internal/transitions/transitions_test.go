package transitions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/modpipe/internal/core"
	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/transition"
)

type stubModule struct{ ident, layer string }

func (m stubModule) Ident() string { return m.ident }
func (m stubModule) Layer() string { return m.layer }

// echoLoader produces a module carrying the context's layer.
var echoLoader = transition.LoaderFunc(func(_ context.Context, ac *transition.AssetContext, src core.Source, _ core.ReferenceType) (core.ProcessResult, error) {
	return core.ModuleResult(stubModule{ident: src.Ident(), layer: ac.Layer()}), nil
})

func baseContext() *transition.AssetContext {
	return transition.NewAssetContext(
		transition.EmptyRegistry(),
		core.CompileTimeInfo{Environment: "node", Defines: map[string]string{"DEBUG": "false"}},
		core.ModuleOptions{Formats: []string{"cue"}},
		core.ResolveOptions{Externals: []string{"react"}},
		"app",
	)
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestFactoriesRegistered(t *testing.T) {
	assert.Equal(t, []string{"context", "environment", "externals", "layer", "wrap"}, Factories())
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("teleport", "x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
	assert.Contains(t, err.Error(), "teleport")
}

func TestLayerTransition(t *testing.T) {
	tests := []struct {
		name    string
		params  string
		want    string
		wantErr bool
	}{
		{name: "replace", params: `{"layer": "ssr"}`, want: "ssr"},
		{name: "suffix", params: `{"suffix": "/client"}`, want: "app/client"},
		{name: "both is an error", params: `{"layer": "a", "suffix": "/b"}`, wantErr: true},
		{name: "neither is an error", params: `{}`, wantErr: true},
		{name: "no params is an error", params: ``, wantErr: true},
		{name: "unknown field is an error", params: `{"layr": "x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(TypeLayer, "l", raw(tt.params))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, oerrors.ErrValidation))
				return
			}
			require.NoError(t, err)
			got, err := tr.ProcessLayer("app")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvironmentTransition(t *testing.T) {
	tr, err := New(TypeEnvironment, "edge", raw(`{"environment": "edge", "defines": {"DEBUG": "true", "REGION": "eu"}, "suffix": "/edge"}`))
	require.NoError(t, err)

	ac, err := transition.ProcessContext(tr, baseContext())
	require.NoError(t, err)

	info := ac.CompileTimeInfo()
	assert.Equal(t, "edge", info.Environment)
	assert.Equal(t, map[string]string{"DEBUG": "true", "REGION": "eu"}, info.Defines)
	assert.Equal(t, "app/edge", ac.Layer())
	// untouched fields
	assert.Equal(t, []string{"cue"}, ac.ModuleOptions().Formats)
	assert.Equal(t, []string{"react"}, ac.ResolveOptions().Externals)

	t.Run("defines only keeps environment", func(t *testing.T) {
		tr, err := New(TypeEnvironment, "dbg", raw(`{"defines": {"DEBUG": "true"}}`))
		require.NoError(t, err)
		ac, err := transition.ProcessContext(tr, baseContext())
		require.NoError(t, err)
		assert.Equal(t, "node", ac.CompileTimeInfo().Environment)
		assert.Equal(t, "app", ac.Layer())
	})

	t.Run("empty params is an error", func(t *testing.T) {
		_, err := New(TypeEnvironment, "x", raw(`{}`))
		assert.Error(t, err)
	})
}

func TestExternalsTransition(t *testing.T) {
	tr, err := New(TypeExternals, "ext", raw(`{"externals": ["react", "lodash/"], "alias": {"@/": "src/"}}`))
	require.NoError(t, err)

	ac, err := transition.ProcessContext(tr, baseContext())
	require.NoError(t, err)

	ro := ac.ResolveOptions()
	assert.Equal(t, []string{"react", "lodash/"}, ro.Externals)
	assert.Equal(t, map[string]string{"@/": "src/"}, ro.Alias)
	assert.Equal(t, "app", ac.Layer())

	_, err = New(TypeExternals, "x", raw(`{"layer": "a"}`))
	assert.Error(t, err)
}

func TestContextTransitionFactory(t *testing.T) {
	tr, err := New(TypeContext, "worker", raw(`{
		"compileTime": {"environment": "worker"},
		"moduleOptions": {"strict": true},
		"layer": "worker"
	}`))
	require.NoError(t, err)

	ac, err := transition.ProcessContext(tr, baseContext())
	require.NoError(t, err)
	assert.Equal(t, core.CompileTimeInfo{Environment: "worker"}, ac.CompileTimeInfo())
	assert.Equal(t, core.ModuleOptions{Strict: true}, ac.ModuleOptions())
	assert.Equal(t, core.ResolveOptions{}, ac.ResolveOptions())
	assert.Equal(t, "worker", ac.Layer())

	typ, hooks := Describe(tr)
	assert.Equal(t, TypeContext, typ)
	assert.Contains(t, hooks, "ProcessModuleOptions")
}

func TestWrapTransition(t *testing.T) {
	tr, err := New(TypeWrap, "client", raw(`{"wrapper": "client-reference", "suffix": "/client", "banner": "use client"}`))
	require.NoError(t, err)

	res, err := transition.Process(context.Background(), tr, core.NewVirtualSource("src/page.cue", []byte("a: 1")), baseContext(), core.ReferenceStatic, echoLoader)
	require.NoError(t, err)

	m, ok := res.Module()
	require.True(t, ok)
	wrapped, ok := m.(*core.WrappedModule)
	require.True(t, ok)
	assert.Equal(t, "client-reference", wrapped.Wrapper)
	assert.Equal(t, "app/client", wrapped.Layer())
	assert.Equal(t, "app/client", wrapped.Inner.Layer())
	assert.Equal(t, "client-reference:src/page.cue", wrapped.Ident())

	t.Run("banner comment per format", func(t *testing.T) {
		ctx := context.Background()
		for ident, want := range map[string]string{
			"a.cue":  "// use client\nx",
			"a.yaml": "# use client\nx",
			"a.json": "x",
		} {
			src, err := tr.ProcessSource(core.NewVirtualSource(ident, []byte("x")))
			require.NoError(t, err)
			assert.Equal(t, ident, src.Ident())
			got, err := src.Content(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, string(got), ident)
		}
	})

	t.Run("ignore is not wrapped", func(t *testing.T) {
		ignoring := transition.LoaderFunc(func(context.Context, *transition.AssetContext, core.Source, core.ReferenceType) (core.ProcessResult, error) {
			return core.IgnoreResult(), nil
		})
		res, err := transition.Process(context.Background(), tr, core.NewVirtualSource("x.css", nil), baseContext(), core.ReferenceStatic, ignoring)
		require.NoError(t, err)
		assert.True(t, res.IsIgnore())
	})

	t.Run("wrapper is required", func(t *testing.T) {
		_, err := New(TypeWrap, "x", raw(`{"layer": "a"}`))
		assert.Error(t, err)
	})

	typ, hooks := Describe(tr)
	assert.Equal(t, TypeWrap, typ)
	assert.Equal(t, []string{"ProcessSource", "ProcessLayer", "ProcessModule"}, hooks)
}

func TestBuild(t *testing.T) {
	reg, err := Build([]Spec{
		{Name: "client", Type: TypeWrap, Parameters: raw(`{"wrapper": "client-reference", "suffix": "/client"}`)},
		{Name: "ssr", Type: TypeLayer, Parameters: raw(`{"layer": "ssr"}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"client", "ssr"}, reg.Names())

	ssr, ok := reg.Lookup("ssr")
	require.True(t, ok)
	layer, err := ssr.ProcessLayer("app")
	require.NoError(t, err)
	assert.Equal(t, "ssr", layer)

	t.Run("empty", func(t *testing.T) {
		reg, err := Build(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("errors", func(t *testing.T) {
		for name, specs := range map[string][]Spec{
			"missing name":   {{Type: TypeLayer, Parameters: raw(`{"layer": "a"}`)}},
			"duplicate name": {{Name: "a", Type: TypeLayer, Parameters: raw(`{"layer": "a"}`)}, {Name: "a", Type: TypeLayer, Parameters: raw(`{"layer": "b"}`)}},
			"unknown type":   {{Name: "a", Type: "nope"}},
			"bad params":     {{Name: "a", Type: TypeLayer, Parameters: raw(`[1]`)}},
		} {
			_, err := Build(specs)
			require.Error(t, err, name)
			assert.True(t, errors.Is(err, oerrors.ErrValidation), name)
		}
	})
}

type customTransition struct{ transition.Defaults }

func (customTransition) ProcessLayer(l string) (string, error) { return l, nil }

func TestDescribeCustom(t *testing.T) {
	typ, hooks := Describe(customTransition{})
	assert.Equal(t, "custom", typ)
	assert.Nil(t, hooks)
}

func TestSpecKey(t *testing.T) {
	key := func(s Spec) string {
		t.Helper()
		k, err := s.Key()
		require.NoError(t, err)
		return k
	}

	edge := Spec{Name: "edge", Type: TypeEnvironment, Parameters: raw(`{"environment":"edge"}`)}
	assert.Equal(t, key(edge), key(Spec{Name: "edge", Type: TypeEnvironment, Parameters: raw(`{"environment":"edge"}`)}))
	assert.Regexp(t, `^edge@xxh64:[0-9a-f]{16}$`, key(edge))

	for name, other := range map[string]Spec{
		"parameters": {Name: "edge", Type: TypeEnvironment, Parameters: raw(`{"environment":"worker"}`)},
		"type":       {Name: "edge", Type: TypeLayer, Parameters: raw(`{"environment":"edge"}`)},
		"name":       {Name: "edge2", Type: TypeEnvironment, Parameters: raw(`{"environment":"edge"}`)},
	} {
		assert.NotEqual(t, key(edge), key(other), name)
	}

	assert.NotEmpty(t, key(Spec{Name: "bare", Type: TypeLayer}))
}
