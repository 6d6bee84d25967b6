package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordProcess(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(processTotal.WithLabelValues("client", OutcomeModule))
	RecordProcess("client", OutcomeModule)
	RecordProcess("client", OutcomeModule)
	assert.Equal(t, before+2, testutil.ToFloat64(processTotal.WithLabelValues("client", OutcomeModule)))

	noneBefore := testutil.ToFloat64(processTotal.WithLabelValues("none", OutcomeIgnore))
	RecordProcess("", OutcomeIgnore)
	assert.Equal(t, noneBefore+1, testutil.ToFloat64(processTotal.WithLabelValues("none", OutcomeIgnore)))
}

func TestRecordCacheRequest(t *testing.T) {
	Register()

	before := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues(CacheHit))
	RecordCacheRequest(CacheHit)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues(CacheHit)))
}

func TestGather(t *testing.T) {
	Register()
	RecordProcess("gather", OutcomeError)

	var buf bytes.Buffer
	require.NoError(t, Gather(&buf))
	out := buf.String()
	assert.Contains(t, out, "# TYPE modpipe_process_total counter")
	assert.True(t, strings.Contains(out, `modpipe_process_total{outcome="error",transition="gather"}`), out)
}
