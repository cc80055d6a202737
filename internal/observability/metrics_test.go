package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/dashboard", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/dashboard", "GET", 200, 30*time.Millisecond)
	m.RecordError("/tickets/:id/tag", "POST", "NOT_FOUND")
	m.RecordEvent("tags_assigned", 3)
	m.RecordEvent("tags_assigned", 0)
	m.RecordEvent("spikes_detected", 1)

	snap := m.Snapshot()

	assert.Equal(t, int64(2), snap.Requests["/dashboard|GET|200"])
	assert.Equal(t, 20.0, snap.MeanLatencyMillis["/dashboard|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/:id/tag|POST|NOT_FOUND"])
	assert.Equal(t, []string{"spikes_detected", "tags_assigned"}, snap.EventNames())
	assert.Equal(t, int64(3), snap.Events["tags_assigned"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordEvent("x", 1)
	assert.Empty(t, m.Snapshot().Requests)
}
