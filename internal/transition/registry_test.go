package transition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/modpipe/internal/core"
)

func TestRegistry_Default(t *testing.T) {
	for name, reg := range map[string]Registry{
		"zero":  {},
		"empty": EmptyRegistry(),
		"nil":   NewRegistry(nil),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0, reg.Len())
			assert.Empty(t, reg.Names())
			for _, n := range []string{"", "client", "ssr"} {
				got, ok := reg.Lookup(n)
				assert.False(t, ok)
				assert.Nil(t, got)
			}
		})
	}
}

func TestRegistry_LookupAndCopy(t *testing.T) {
	byName := map[string]Transition{"ssr": layerOnly{}, "client": clientLayer{}}
	reg := NewRegistry(byName)
	delete(byName, "ssr")

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"client", "ssr"}, reg.Names())

	got, ok := reg.Lookup("client")
	assert.True(t, ok)
	assert.Equal(t, clientLayer{}, got)

	_, ok = reg.Lookup("edge")
	assert.False(t, ok)
}

func TestAssetContext_Immutable(t *testing.T) {
	defines := map[string]string{"A": "1"}
	ignore := []string{"*.test.cue"}
	ac := NewAssetContext(EmptyRegistry(), core.CompileTimeInfo{Defines: defines}, core.ModuleOptions{Ignore: ignore}, core.ResolveOptions{}, "app")

	defines["A"] = "2"
	ignore[0] = "changed"
	assert.Equal(t, "1", ac.CompileTimeInfo().Defines["A"])
	assert.Equal(t, "*.test.cue", ac.ModuleOptions().Ignore[0])

	info := ac.CompileTimeInfo()
	info.Defines["A"] = "3"
	assert.Equal(t, "1", ac.CompileTimeInfo().Defines["A"])
}

func TestAssetContext_Digest(t *testing.T) {
	a, err := testContext(EmptyRegistry()).Digest()
	require.NoError(t, err)
	b, err := testContext(EmptyRegistry()).Digest()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	client, err := ProcessContext(clientLayer{}, testContext(EmptyRegistry()))
	require.NoError(t, err)
	c, err := client.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	withReg, err := testContext(NewRegistry(map[string]Transition{"client": clientLayer{}})).Digest()
	require.NoError(t, err)
	assert.NotEqual(t, a, withReg)
}

func TestAssetContext_WithTransition(t *testing.T) {
	ac := testContext(NewRegistry(map[string]Transition{"client": clientLayer{}}))

	t.Run("found", func(t *testing.T) {
		loader := &recordingLoader{}
		tc := ac.WithTransition("client")
		assert.True(t, tc.Found)
		assert.Same(t, ac, tc.Context())

		_, err := tc.Process(context.Background(), testSource(), core.ReferenceStatic, loader)
		require.NoError(t, err)
		assert.Equal(t, "app/client", loader.last(t).Layer())
	})

	t.Run("missing falls back to untransformed", func(t *testing.T) {
		loader := &recordingLoader{}
		tc := ac.WithTransition("edge")
		assert.False(t, tc.Found)
		assert.Equal(t, None, tc.Transition)

		got, err := tc.Process(context.Background(), testSource(), core.ReferenceStatic, loader)
		require.NoError(t, err)
		assert.Equal(t, "app", loader.last(t).Layer())

		plain, err := ac.Process(context.Background(), testSource(), core.ReferenceStatic, loader)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	})
}
