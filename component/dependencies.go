package component

import (
	"log/slog"

	"github.com/Noaman7/BluemixPOC/metric"
	"github.com/Noaman7/BluemixPOC/natsclient"
	"github.com/Noaman7/BluemixPOC/types"
)

// PlatformMeta provides platform identity to components.
// Type alias to avoid import cycles while maintaining compatibility.
type PlatformMeta = types.PlatformMeta

// Dependencies provides all external dependencies needed by components.
// Components receive properly structured dependencies rather than individual
// fields, matching the service constructor pattern.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging
	Profiles        any                     // Source of named connection profiles (type: cloudant.ProfileSource, can be nil)
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	Platform        PlatformMeta            // Platform identity (organization and platform)
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
