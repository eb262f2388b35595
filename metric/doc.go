// Package metric provides Prometheus-based metrics for the BluemixPOC gateway.
//
// The MetricsRegistry owns a dedicated Prometheus registry pre-populated with
// core platform metrics (service status, message counters, document operation
// counters, NATS connection health) plus Go runtime collectors. Components
// register their own metrics through the MetricsRegistrar interface using a
// service-scoped name to avoid collisions.
//
// The Server exposes the registry over HTTP at /metrics with OpenMetrics
// support, plus a /health endpoint.
//
// Usage:
//
//	registry := metric.NewMetricsRegistry()
//	registry.CoreMetrics().RecordMessageReceived("cloudant-out", "envelope")
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	go server.Start()
package metric
