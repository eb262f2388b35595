package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusConstructors(t *testing.T) {
	healthy := NewHealthy("orders-writer", "connected")
	assert.True(t, healthy.IsHealthy())
	assert.True(t, healthy.Healthy)
	assert.Equal(t, "connected", healthy.Message)
	assert.False(t, healthy.Timestamp.IsZero())

	unhealthy := NewUnhealthy("orders-writer", "backend unreachable")
	assert.True(t, unhealthy.IsUnhealthy())
	assert.False(t, unhealthy.Healthy)

	degraded := NewDegraded("orders-reader", "queries slow")
	assert.True(t, degraded.IsDegraded())
	assert.False(t, degraded.Healthy)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{
			name: "empty is healthy",
			subs: nil,
			want: "healthy",
		},
		{
			name: "all healthy",
			subs: []Status{
				{Status: "healthy", Component: "orders-writer"},
				{Status: "healthy", Component: "orders-reader"},
			},
			want: "healthy",
		},
		{
			name: "degraded member degrades the whole",
			subs: []Status{
				{Status: "healthy", Component: "orders-writer"},
				{Status: "degraded", Component: "orders-reader"},
			},
			want: "degraded",
		},
		{
			name: "unhealthy member wins over degraded",
			subs: []Status{
				{Status: "degraded", Component: "orders-reader"},
				{Status: "unhealthy", Component: "orders-writer"},
			},
			want: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate("gateway", tt.subs)

			assert.Equal(t, "gateway", result.Component)
			assert.Equal(t, tt.want, result.Status)
			assert.Len(t, result.SubStatuses, len(tt.subs))
			assert.False(t, result.Timestamp.IsZero())
		})
	}
}

func TestAggregate_CopiesSubStatuses(t *testing.T) {
	subs := []Status{
		{Status: "healthy", Component: "orders-writer"},
		{Status: "unhealthy", Component: "orders-reader"},
	}

	result := Aggregate("gateway", subs)
	require.Len(t, result.SubStatuses, 2)

	result.SubStatuses[0].Component = "tampered"
	assert.Equal(t, "orders-writer", subs[0].Component)
}
