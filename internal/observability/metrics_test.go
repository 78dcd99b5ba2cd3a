package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/tickets", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/tickets/:id", "GET", "NOT_FOUND")
	m.RecordCascadeFailure("client", "delete_client_documents")
	m.RecordCalendarSync("failed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/api/tickets", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("/api/tickets/:id", "GET", "NOT_FOUND")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cascadeFailure.WithLabelValues("client", "delete_client_documents")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.calendarSync.WithLabelValues("failed")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordCascadeFailure("module", "x")
		m.RecordCalendarSync("ok")
	})
	assert.Nil(t, m.Registry())
}
