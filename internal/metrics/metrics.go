// Package metrics exposes prometheus counters for pipeline runs and memo
// cache use.
package metrics

import (
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const subsystem = "modpipe"

// Outcome labels for ProcessTotal.
const (
	OutcomeModule = "module"
	OutcomeIgnore = "ignore"
	OutcomeError  = "error"
)

// Result labels for CacheRequestsTotal.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheShared = "shared"
)

var (
	// Registry holds the modpipe collectors. It is separate from the
	// prometheus default registry so no process collectors are exported.
	Registry = prometheus.NewRegistry()

	processTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "process_total",
			Help:      "Count of pipeline runs by transition and outcome.",
		},
		[]string{"transition", "outcome"},
	)
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "cache_requests_total",
			Help:      "Count of memo cache lookups by result.",
		},
		[]string{"result"},
	)
)

var registerMetrics sync.Once

// Register registers all metrics with Registry. Safe to call more than once.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(processTotal)
		Registry.MustRegister(cacheRequestsTotal)
	})
}

// RecordProcess counts one pipeline run. An empty transition name is
// recorded as "none".
func RecordProcess(transition, outcome string) {
	if transition == "" {
		transition = "none"
	}
	processTotal.WithLabelValues(transition, outcome).Inc()
}

// RecordCacheRequest counts one memo cache lookup.
func RecordCacheRequest(result string) {
	cacheRequestsTotal.WithLabelValues(result).Inc()
}

// Gather writes all registered metrics in the prometheus text format.
func Gather(w io.Writer) error {
	mfs, err := Registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}
	return nil
}
