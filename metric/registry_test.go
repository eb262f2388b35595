package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry.PrometheusRegistry())
	require.NotNil(t, registry.CoreMetrics())

	// Core metrics are usable immediately
	registry.CoreMetrics().RecordMessageReceived("cloudant-out", "envelope")
	registry.CoreMetrics().RecordDocumentWrite("orders", "insert", "ok")
	registry.CoreMetrics().RecordDocumentRead("orders", "by_id", "not_found")
	registry.CoreMetrics().RecordDatabaseCreate("orders", "ok")
	registry.CoreMetrics().RecordNATSStatus(true)
}

func TestRegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter_total",
		Help: "test counter",
	})

	err := registry.RegisterCounter("svc", "test_counter", counter)
	require.NoError(t, err)

	// Duplicate key is rejected
	err = registry.RegisterCounter("svc", "test_counter", counter)
	assert.Error(t, err)

	// Same metric name under a different service still conflicts in Prometheus
	other := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter_total",
		Help: "test counter",
	})
	err = registry.RegisterCounter("other", "test_counter", other)
	assert.Error(t, err)
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "test gauge",
	})
	require.NoError(t, registry.RegisterGauge("svc", "test_gauge", gauge))

	assert.True(t, registry.Unregister("svc", "test_gauge"))
	assert.False(t, registry.Unregister("svc", "test_gauge"))

	// Re-registration succeeds after unregister
	assert.NoError(t, registry.RegisterGauge("svc", "test_gauge", gauge))
}

func TestNewServer_Defaults(t *testing.T) {
	registry := NewMetricsRegistry()

	server := NewServer(0, "", registry)
	assert.Equal(t, "http://localhost:9090/metrics", server.Address())
}
