package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/rectlap/overlap"
)

// TestMetricsRecord verifies each recorder lands in its collector
func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Dispatched()
	m.Dispatched()
	m.DispatchFailed(ReasonSubmit)
	m.Stale()
	m.EngineRun(overlap.Stats{MaxActive: 4}, 3*time.Millisecond)
	m.Published(10, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(ReasonSubmit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stale))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.maxActive))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.rectangles))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.overlapping))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	expected := `
# HELP rectlap_overlapping_rectangles Rectangles flagged as overlapping in the last published result.
# TYPE rectlap_overlapping_rectangles gauge
rectlap_overlapping_rectangles 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "rectlap_overlapping_rectangles"))
}

// TestMetricsNil verifies a nil receiver is a silent no-op
func TestMetricsNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Dispatched()
		m.DispatchFailed(ReasonQueue)
		m.Stale()
		m.EngineRun(overlap.Stats{}, time.Second)
		m.Published(1, 1)
	})
}

// TestServerServesMetrics verifies the HTTP endpoint exposes registered collectors
func TestServerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Dispatched()

	s := NewServer("127.0.0.1:0", reg, logr.Discard())
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "rectlap_dispatch_total 1")

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "stop must be idempotent")
}

// TestServerDisabled verifies an empty address disables the server
func TestServerDisabled(t *testing.T) {
	s := NewServer("", prometheus.NewRegistry(), logr.Discard())
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Start())
	assert.Equal(t, "", s.Addr())
	require.NoError(t, s.Stop())
}
