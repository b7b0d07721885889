package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics holds process-local request and error counters keyed by route,
// method and outcome. The HTTP middleware is the only writer; there is no
// export surface beyond Snapshot.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]int64
	errors   map[string]int64
}

// NewMetrics returns empty counters.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: map[string]int64{},
		errors:   map[string]int64{},
	}
}

// RecordRequest counts a completed request. Latency is accepted for interface
// stability but not aggregated yet.
func (m *Metrics) RecordRequest(route, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.requests[counterKey(route, method, strconv.Itoa(status))]++
	m.mu.Unlock()
}

// RecordError counts a request that resolved to a domain error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.errors[counterKey(route, method, code)]++
	m.mu.Unlock()
}

// Snapshot copies both counter maps for inspection.
func (m *Metrics) Snapshot() (requests, errors map[string]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests = make(map[string]int64, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	errors = make(map[string]int64, len(m.errors))
	for k, v := range m.errors {
		errors[k] = v
	}
	return requests, errors
}

func counterKey(route, method, outcome string) string {
	return route + "|" + method + "|" + outcome
}
