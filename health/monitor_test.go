package health

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Update(t *testing.T) {
	monitor := NewMonitor()

	monitor.Update("orders-writer", Status{Status: "healthy", Message: "writing"})

	status, ok := monitor.Get("orders-writer")
	require.True(t, ok)
	assert.Equal(t, "orders-writer", status.Component)
	assert.True(t, status.IsHealthy())
	assert.False(t, status.Timestamp.IsZero())
}

func TestMonitor_UpdateKeepsInstanceName(t *testing.T) {
	monitor := NewMonitor()

	// Factory-level names would collide across instances; the instance
	// name passed to Update wins
	monitor.Update("orders-writer", Status{Component: "cloudant-output", Status: "healthy"})

	status, ok := monitor.Get("orders-writer")
	require.True(t, ok)
	assert.Equal(t, "orders-writer", status.Component)
}

func TestMonitor_ConvenienceUpdates(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("orders-writer", "ok")
	monitor.UpdateDegraded("orders-reader", "slow queries")
	monitor.UpdateUnhealthy("audit-writer", "backend unreachable")

	writer, _ := monitor.Get("orders-writer")
	reader, _ := monitor.Get("orders-reader")
	audit, _ := monitor.Get("audit-writer")

	assert.True(t, writer.IsHealthy())
	assert.True(t, reader.IsDegraded())
	assert.True(t, audit.IsUnhealthy())
	assert.Equal(t, "backend unreachable", audit.Message)
}

func TestMonitor_GetAllReturnsCopy(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("orders-writer", "ok")

	all := monitor.GetAll()
	require.Len(t, all, 1)

	all["orders-writer"] = Status{Component: "tampered"}
	original, _ := monitor.Get("orders-writer")
	assert.Equal(t, "orders-writer", original.Component)
}

func TestMonitor_Remove(t *testing.T) {
	monitor := NewMonitor()

	monitor.Remove("never-added") // no panic

	monitor.UpdateHealthy("orders-writer", "ok")
	monitor.Remove("orders-writer")

	_, ok := monitor.Get("orders-writer")
	assert.False(t, ok)
}

func TestMonitor_AggregateHealth(t *testing.T) {
	monitor := NewMonitor()

	// Nothing reporting yet
	assert.True(t, monitor.AggregateHealth("gateway").IsHealthy())

	monitor.UpdateHealthy("orders-writer", "ok")
	monitor.UpdateHealthy("orders-reader", "ok")
	assert.True(t, monitor.AggregateHealth("gateway").IsHealthy())

	monitor.UpdateDegraded("orders-reader", "slow")
	assert.True(t, monitor.AggregateHealth("gateway").IsDegraded())

	monitor.UpdateUnhealthy("orders-writer", "down")
	aggregate := monitor.AggregateHealth("gateway")
	assert.True(t, aggregate.IsUnhealthy())
	assert.Equal(t, "gateway", aggregate.Component)
	assert.Len(t, aggregate.SubStatuses, 2)
}

func TestMonitor_ConcurrentUse(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch j % 4 {
				case 0:
					monitor.UpdateHealthy("orders-writer", "ok")
				case 1:
					monitor.UpdateUnhealthy("orders-writer", "down")
				case 2:
					_, _ = monitor.Get("orders-writer")
				default:
					_ = monitor.AggregateHealth("gateway")
				}
			}
		}()
	}
	wg.Wait()

	monitor.UpdateHealthy("orders-writer", "ok")
	status, ok := monitor.Get("orders-writer")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
}
