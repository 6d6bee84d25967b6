// Package memo memoizes pipeline runs. Hooks are pure, so a run is fully
// determined by the transition name, the source identity and content, the
// context and the reference type; equal inputs reuse the first result.
package memo

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/opmodel/modpipe/internal/core"
	"github.com/opmodel/modpipe/internal/metrics"
	"github.com/opmodel/modpipe/internal/output"
	"github.com/opmodel/modpipe/internal/transition"
)

const (
	// DefaultTTL is how long a result stays cached.
	DefaultTTL = 10 * time.Minute

	// DefaultCapacity bounds the number of cached results.
	DefaultCapacity = 1024
)

// Pipeline runs transition.Process through a result cache.
type Pipeline struct {
	loader transition.Loader
	cache  *ttlcache.Cache[uint64, core.ProcessResult]
	group  singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
	shared atomic.Uint64
}

type options struct {
	ttl      time.Duration
	capacity uint64
}

// Option configures a Pipeline.
type Option func(*options)

// WithTTL sets how long results are cached. Zero or negative keeps the default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCapacity bounds the cache size. Zero keeps the default.
func WithCapacity(capacity uint64) Option {
	return func(o *options) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}

// New creates a Pipeline around loader. Expired results are dropped lazily
// on lookup; capacity evicts the least recently used.
func New(loader transition.Loader, opts ...Option) *Pipeline {
	o := options{ttl: DefaultTTL, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipeline{
		loader: loader,
		cache: ttlcache.New(
			ttlcache.WithTTL[uint64, core.ProcessResult](o.ttl),
			ttlcache.WithCapacity[uint64, core.ProcessResult](o.capacity),
		),
	}
	return p
}

// Process runs src through t like transition.Process. name identifies t in
// the cache key: two transitions that may behave differently must never share
// a name, or one is served the other's results. Errors are never cached.
//
// Concurrent requests for the same key join a single run, which uses the ctx
// of the request that started it. If that ctx is canceled, every joined
// request receives the cancellation error; nothing is cached and the next
// request runs again.
func (p *Pipeline) Process(
	ctx context.Context,
	name string,
	t transition.Transition,
	src core.Source,
	ac *transition.AssetContext,
	ref core.ReferenceType,
) (core.ProcessResult, error) {
	key, err := p.key(ctx, name, src, ac, ref)
	if err != nil {
		return core.ProcessResult{}, err
	}

	if item := p.cache.Get(key); item != nil {
		p.hits.Add(1)
		metrics.RecordCacheRequest(metrics.CacheHit)
		output.Debug("memo hit", "source", src.Ident(), "transition", name)
		return item.Value(), nil
	}

	ran := false
	v, err, shared := p.group.Do(fmt.Sprint(key), func() (any, error) {
		ran = true
		// a run for key may have finished since the lookup above
		if item := p.cache.Get(key); item != nil {
			p.hits.Add(1)
			metrics.RecordCacheRequest(metrics.CacheHit)
			return item.Value(), nil
		}
		p.misses.Add(1)
		metrics.RecordCacheRequest(metrics.CacheMiss)

		res, err := transition.Process(ctx, t, src, ac, ref, p.loader)
		if err != nil {
			return core.ProcessResult{}, err
		}
		p.cache.Set(key, res, ttlcache.DefaultTTL)
		return res, nil
	})
	// the request that ran the closure counted itself as a hit or miss
	if shared && !ran {
		p.shared.Add(1)
		metrics.RecordCacheRequest(metrics.CacheShared)
	}
	if err != nil {
		return core.ProcessResult{}, err
	}
	return v.(core.ProcessResult), nil
}

// key hashes the run's inputs. The source content is read so that edits to a
// source invalidate its cached result.
func (p *Pipeline) key(ctx context.Context, name string, src core.Source, ac *transition.AssetContext, ref core.ReferenceType) (uint64, error) {
	content, err := src.Content(ctx)
	if err != nil {
		// the loader reports unreadable sources; errors are not cached
		content = nil
	}
	acDigest, err := ac.Digest()
	if err != nil {
		return 0, fmt.Errorf("digesting context: %w", err)
	}

	d := xxhash.New()
	for _, part := range []string{name, src.Ident(), core.DigestBytes(content), acDigest, ref.String()} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64(), nil
}

// Stats describes cache use. Every request counts once: as a hit, a miss, or
// shared when it joined a run started by another request.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Shared  uint64 `json:"shared"`
	Entries int    `json:"entries"`
}

// Stats returns cache counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Hits:    p.hits.Load(),
		Misses:  p.misses.Load(),
		Shared:  p.shared.Load(),
		Entries: p.cache.Len(),
	}
}

// Close drops all cached results.
func (p *Pipeline) Close() {
	p.cache.DeleteAll()
}
