// Package health provides health monitoring for gateway components with
// thread-safe status tracking and aggregation.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// # Basic Usage
//
// Creating and tracking component health:
//
//	monitor := health.NewMonitor()
//
//	// Update component health
//	monitor.UpdateHealthy("orders-writer", "Connected to backend")
//	monitor.UpdateUnhealthy("orders-reader", "Connection timeout after 5 attempts")
//
//	// Aggregate all monitored components
//	systemHealth := monitor.AggregateHealth("bluemixpoc")
//	if systemHealth.IsUnhealthy() {
//	    log.Printf("System unhealthy: %s", systemHealth.Message)
//	}
//
// Aggregation rules: any unhealthy component makes the system unhealthy; any
// degraded component (with no unhealthy) makes it degraded; otherwise healthy.
//
// # Component Integration
//
// FromComponentHealth converts a component.HealthStatus into a health.Status,
// sanitizing error messages so URLs, file paths, IP addresses, and
// credentials never leak into health reports:
//
//	status := health.FromComponentHealth("orders-writer", instance.Health())
//	monitor.Update("orders-writer", status)
package health
