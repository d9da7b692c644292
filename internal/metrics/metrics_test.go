package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.Sent(1)
	m.Sent(2)
	m.Received(3, 1)
	m.Received(0, 0)
	m.Oversized()
	m.Filtered()
	m.Filtered()
	m.ReadFailed()
	m.WorkerFailed(WorkerProducer, "generic")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsReceived))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Matches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesMatched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsOversized))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntriesFiltered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReadFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkerFailures.WithLabelValues(WorkerProducer, "generic")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WorkerFailures.WithLabelValues(WorkerConsumer, "generic")))
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Sent(1)
		m.Received(1, 0)
		m.Oversized()
		m.Filtered()
		m.ReadFailed()
		m.WorkerFailed(WorkerConsumer, "channel")
		m.ObserveRun(time.Second)
	})
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Sent(0)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ItemsSent))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ItemsSent))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Sent(0)
	m.Received(2, 0)
	m.ObserveRun(250 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "treegrep.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "treegrep_items_sent_total 1")
	assert.Contains(t, out, "treegrep_matches_total 2")
	assert.Contains(t, out, "treegrep_run_duration_seconds_count 1")

	expected := `
# HELP treegrep_items_received_total Paths received and processed by the consumer.
# TYPE treegrep_items_received_total counter
treegrep_items_received_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "treegrep_items_received_total"))
}
