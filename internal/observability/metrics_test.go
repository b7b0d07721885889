package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/issues", "POST", 201, 12*time.Millisecond)
	m.RecordRequest("/issues", "POST", 201, 8*time.Millisecond)
	m.RecordRequest("/issues/:id", "GET", 404, time.Millisecond)
	m.RecordError("/issues/:id", "GET", "NOT_FOUND")

	requests, errors := m.Snapshot()
	require.Equal(t, int64(2), requests["/issues|POST|201"])
	require.Equal(t, int64(1), requests["/issues/:id|GET|404"])
	require.Equal(t, int64(1), errors["/issues/:id|GET|NOT_FOUND"])
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordRequest("/health/live", "GET", 200, 0)
		m.RecordError("/health/live", "GET", "INTERNAL_ERROR")
	})
}
