package health

import "time"

func newStatus(component, state, message string, healthy bool) Status {
	return Status{
		Component: component,
		Healthy:   healthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy builds a healthy status.
func NewHealthy(component, message string) Status {
	return newStatus(component, "healthy", message, true)
}

// NewUnhealthy builds an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, "unhealthy", message, false)
}

// NewDegraded builds a degraded status.
func NewDegraded(component, message string) Status {
	return newStatus(component, "degraded", message, false)
}

// Aggregate rolls sub-statuses into one. Any unhealthy member makes the
// whole unhealthy; otherwise any degraded member makes it degraded; an
// empty set counts as healthy. The inputs are copied into SubStatuses.
func Aggregate(component string, subs []Status) Status {
	if len(subs) == 0 {
		return NewHealthy(component, "no components reporting")
	}

	unhealthy, degraded := 0, 0
	for _, sub := range subs {
		switch {
		case sub.IsUnhealthy():
			unhealthy++
		case sub.IsDegraded():
			degraded++
		}
	}

	var status Status
	switch {
	case unhealthy > 0:
		status = NewUnhealthy(component, "at least one component unhealthy")
	case degraded > 0:
		status = NewDegraded(component, "at least one component degraded")
	default:
		status = NewHealthy(component, "all components healthy")
	}

	status.SubStatuses = make([]Status, len(subs))
	copy(status.SubStatuses, subs)
	return status
}
