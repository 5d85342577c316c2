package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divinity10/GLADyS-sub004/errors"
)

func TestNewMetricsRegistryRegistersCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()
	require.NotNil(t, registry.CoreMetrics())

	// Core metrics must be collectable through the prometheus registry
	registry.CoreMetrics().RecordPublished("game-sensor", "immediate", 3)
	count := testutil.ToFloat64(
		registry.CoreMetrics().EventsPublished.WithLabelValues("game-sensor", "immediate"))
	assert.Equal(t, 3.0, count)
}

func TestRegisterCounterRejectsDuplicates(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driver_frames_total",
		Help: "frames seen by the driver",
	})

	require.NoError(t, registry.RegisterCounter("game-sensor", "frames", counter))

	dup := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "driver_frames_total_other",
		Help: "other",
	})
	err := registry.RegisterCounter("game-sensor", "frames", dup)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterCounterRejectsPrometheusConflict(t *testing.T) {
	registry := NewMetricsRegistry()

	mk := func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driver_conflict_total",
			Help: "conflict",
		})
	}

	require.NoError(t, registry.RegisterCounter("a", "first", mk()))
	err := registry.RegisterCounter("b", "second", mk())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestUnregisterAllowsReRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "driver_queue_depth",
		Help: "queue depth",
	})
	require.NoError(t, registry.RegisterGauge("game-sensor", "queue", gauge))
	assert.True(t, registry.Unregister("game-sensor", "queue"))
	assert.False(t, registry.Unregister("game-sensor", "queue"))

	require.NoError(t, registry.RegisterGauge("game-sensor", "queue", gauge))
}

func TestRecordHelpers(t *testing.T) {
	m := NewMetrics()

	m.RecordAdapterState("cal", 1)
	m.RecordCommand("cal", "start", "ok")
	m.RecordSuppressed("cal", "admission", 2)
	m.RecordBuffered("cal", 7)
	m.RecordLivenessTick("cal", "failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterState.WithLabelValues("cal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsDispatched.WithLabelValues("cal", "start", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsSuppressed.WithLabelValues("cal", "admission")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.EventsBuffered.WithLabelValues("cal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LivenessTicks.WithLabelValues("cal", "failed")))
}
