package core

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiledModule_SnapshotsCompileTime(t *testing.T) {
	info := CompileTimeInfo{Environment: "node", Defines: map[string]string{"A": "1"}}
	v := cuecontext.New().CompileString(`a: 1`)
	require.NoError(t, v.Err())

	m := NewCompiledModule("src/a.cue", "app", FormatCUE, v, info)
	info.Defines["A"] = "changed"

	assert.Equal(t, "src/a.cue", m.Ident())
	assert.Equal(t, "app", m.Layer())
	assert.Equal(t, FormatCUE, m.Format())
	assert.Equal(t, "1", m.CompileTime.Defines["A"])
}

func TestWrappedModule(t *testing.T) {
	inner := NewCompiledModule("a.cue", "app", FormatCUE, cuecontext.New().CompileString(`{}`), CompileTimeInfo{})
	w := NewWrappedModule("client-reference", inner, "app/client")
	ww := NewWrappedModule("proxy", w, "app/edge")

	assert.Equal(t, "client-reference:a.cue", w.Ident())
	assert.Equal(t, "app/client", w.Layer())
	assert.Equal(t, "proxy:client-reference:a.cue", ww.Ident())
	assert.Same(t, inner, Unwrap(ww))
	assert.Same(t, inner, Unwrap(inner))
}
