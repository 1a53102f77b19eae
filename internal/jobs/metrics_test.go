package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("uploads:sweep").End(nil))
	err := errors.New("disk full")
	assert.Equal(t, err, m.Track("uploads:sweep").End(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("uploads:sweep", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("uploads:sweep", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("uploads:sweep")))
}

func TestAddItems(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddItems("memberships:expire", 3)
	m.AddItems("memberships:expire", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.items.WithLabelValues("memberships:expire")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.AddItems("x", 1)
}
