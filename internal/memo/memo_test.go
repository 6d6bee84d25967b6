package memo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/modpipe/internal/core"
	"github.com/opmodel/modpipe/internal/transition"
)

type stubModule struct{ ident, layer string }

func (m stubModule) Ident() string { return m.ident }
func (m stubModule) Layer() string { return m.layer }

type countingLoader struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (l *countingLoader) Load(_ context.Context, ac *transition.AssetContext, src core.Source, _ core.ReferenceType) (core.ProcessResult, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return core.ProcessResult{}, l.err
	}
	return core.ModuleResult(stubModule{ident: src.Ident(), layer: ac.Layer()}), nil
}

type suffix string

func (s suffix) ProcessLayer(l string) (string, error) { return l + string(s), nil }

type suffixTransition struct {
	transition.Defaults
	suffix
}

func testContext(layer string) *transition.AssetContext {
	return transition.NewAssetContext(transition.EmptyRegistry(), core.CompileTimeInfo{Environment: "node"}, core.ModuleOptions{}, core.ResolveOptions{}, layer)
}

func TestProcessCachesEqualInputs(t *testing.T) {
	loader := &countingLoader{}
	p := New(loader)
	defer p.Close()

	ctx := context.Background()
	client := suffixTransition{suffix: "/client"}

	first, err := p.Process(ctx, "client", client, core.NewVirtualSource("a.cue", []byte("x")), testContext("app"), core.ReferenceStatic)
	require.NoError(t, err)
	second, err := p.Process(ctx, "client", client, core.NewVirtualSource("a.cue", []byte("x")), testContext("app"), core.ReferenceStatic)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, loader.calls.Load())

	stats := p.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Entries)

	m, ok := second.Module()
	require.True(t, ok)
	assert.Equal(t, "app/client", m.Layer())
}

func TestProcessKeyComponents(t *testing.T) {
	ctx := context.Background()
	client := suffixTransition{suffix: "/client"}
	base := func(p *Pipeline) {
		_, err := p.Process(ctx, "client", client, core.NewVirtualSource("a.cue", []byte("x")), testContext("app"), core.ReferenceStatic)
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		run  func(p *Pipeline) error
	}{
		{name: "transition name", run: func(p *Pipeline) error {
			_, err := p.Process(ctx, "other", client, core.NewVirtualSource("a.cue", []byte("x")), testContext("app"), core.ReferenceStatic)
			return err
		}},
		{name: "source ident", run: func(p *Pipeline) error {
			_, err := p.Process(ctx, "client", client, core.NewVirtualSource("b.cue", []byte("x")), testContext("app"), core.ReferenceStatic)
			return err
		}},
		{name: "source content", run: func(p *Pipeline) error {
			_, err := p.Process(ctx, "client", client, core.NewVirtualSource("a.cue", []byte("y")), testContext("app"), core.ReferenceStatic)
			return err
		}},
		{name: "context", run: func(p *Pipeline) error {
			_, err := p.Process(ctx, "client", client, core.NewVirtualSource("a.cue", []byte("x")), testContext("ssr"), core.ReferenceStatic)
			return err
		}},
		{name: "reference type", run: func(p *Pipeline) error {
			_, err := p.Process(ctx, "client", client, core.NewVirtualSource("a.cue", []byte("x")), testContext("app"), core.ReferenceDynamic)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &countingLoader{}
			p := New(loader)
			defer p.Close()

			base(p)
			require.NoError(t, tt.run(p))
			assert.EqualValues(t, 2, loader.calls.Load())
		})
	}
}

func TestProcessErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	loader := &countingLoader{err: boom}
	p := New(loader)
	defer p.Close()

	for i := 0; i < 2; i++ {
		_, err := p.Process(context.Background(), "", transition.None, core.NewVirtualSource("a.cue", nil), testContext("app"), core.ReferenceStatic)
		assert.Same(t, boom, err)
	}
	assert.EqualValues(t, 2, loader.calls.Load())
	assert.Equal(t, 0, p.Stats().Entries)
}

func TestProcessCollapsesConcurrentRequests(t *testing.T) {
	loader := &countingLoader{delay: 50 * time.Millisecond}
	p := New(loader)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Process(context.Background(), "", transition.None, core.NewVirtualSource("a.cue", []byte("x")), testContext("app"), core.ReferenceStatic)
			assert.NoError(t, err)
			assert.False(t, res.IsIgnore())
		}()
	}
	wg.Wait()

	// requests that arrive after the first completes hit the cache
	assert.EqualValues(t, 1, loader.calls.Load())

	stats := p.Stats()
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 8, stats.Hits+stats.Misses+stats.Shared, "each request counts once: %+v", stats)
}

func TestProcessExpiry(t *testing.T) {
	loader := &countingLoader{}
	p := New(loader, WithTTL(20*time.Millisecond), WithCapacity(4))
	defer p.Close()

	run := func() {
		_, err := p.Process(context.Background(), "", transition.None, core.NewVirtualSource("a.cue", nil), testContext("app"), core.ReferenceStatic)
		require.NoError(t, err)
	}
	run()
	time.Sleep(50 * time.Millisecond)
	run()
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestClose(t *testing.T) {
	loader := &countingLoader{}
	p := New(loader)

	_, err := p.Process(context.Background(), "", transition.None, core.NewVirtualSource("a.cue", nil), testContext("app"), core.ReferenceStatic)
	require.NoError(t, err)
	p.Close()
	assert.Equal(t, 0, p.Stats().Entries)
}
