package transition

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opmodel/modpipe/internal/core"
)

// stubModule is a comparable module so results can be compared with assert.Equal.
type stubModule struct {
	ident   string
	layer   string
	context string
	ref     core.ReferenceType
}

func (m stubModule) Ident() string { return m.ident }
func (m stubModule) Layer() string { return m.layer }

// recordingLoader deterministically turns sources into stubModules and
// remembers every context it was handed.
type recordingLoader struct {
	mu     sync.Mutex
	seen   []*AssetContext
	ignore map[string]bool
	err    error
}

func (l *recordingLoader) Load(ctx context.Context, ac *AssetContext, src core.Source, ref core.ReferenceType) (core.ProcessResult, error) {
	l.mu.Lock()
	l.seen = append(l.seen, ac)
	l.mu.Unlock()

	if l.err != nil {
		return core.ProcessResult{}, l.err
	}
	if l.ignore[src.Ident()] {
		return core.IgnoreResult(), nil
	}
	data, err := src.Content(ctx)
	if err != nil {
		return core.ProcessResult{}, err
	}
	digest, err := ac.Digest()
	if err != nil {
		return core.ProcessResult{}, err
	}
	return core.ModuleResult(stubModule{
		ident:   src.Ident() + "@" + core.DigestBytes(data),
		layer:   ac.Layer(),
		context: digest,
		ref:     ref,
	}), nil
}

func (l *recordingLoader) last(t *testing.T) *AssetContext {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.seen, "loader was not called")
	return l.seen[len(l.seen)-1]
}

func (l *recordingLoader) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// layerOnly supplies nothing but an identity layer hook.
type layerOnly struct{ Defaults }

func (layerOnly) ProcessLayer(layer string) (string, error) { return layer, nil }

// clientLayer appends "/client" to the layer.
type clientLayer struct{ Defaults }

func (clientLayer) ProcessLayer(layer string) (string, error) { return layer + "/client", nil }

// edgeInfo only rewrites the compile-time info.
type edgeInfo struct{ Defaults }

func (edgeInfo) ProcessCompileTimeInfo(info core.CompileTimeInfo) (core.CompileTimeInfo, error) {
	return info.WithEnvironment("edge").WithDefines(map[string]string{"RUNTIME": "edge"}), nil
}

func (edgeInfo) ProcessLayer(layer string) (string, error) { return layer, nil }

func testContext(reg Registry) *AssetContext {
	return NewAssetContext(
		reg,
		core.CompileTimeInfo{Environment: "node", Defines: map[string]string{"NODE_ENV": "production"}},
		core.ModuleOptions{Formats: []string{"cue", "json"}, Ignore: []string{"*.test.cue"}},
		core.ResolveOptions{Extensions: []string{".cue"}, Alias: map[string]string{"@lib/": "lib/"}},
		"app",
	)
}

func testSource() core.Source {
	return core.NewVirtualSource("src/page.cue", []byte("page: \"home\"\n"))
}
