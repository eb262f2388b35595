package message

import (
	"time"
)

// DefaultMeta provides the standard implementation of the Meta interface.
// Timestamps are stored as Unix milliseconds to match the wire format.
type DefaultMeta struct {
	createdAt  int64 // Unix milliseconds
	receivedAt int64 // Unix milliseconds
	source     string
}

// NewDefaultMeta creates a new DefaultMeta instance with the given
// creation time and source. The received time is automatically set
// to the current time.
func NewDefaultMeta(createdAt time.Time, source string) *DefaultMeta {
	return &DefaultMeta{
		createdAt:  toUnixMs(createdAt),
		receivedAt: toUnixMs(time.Now()),
		source:     source,
	}
}

// NewDefaultMetaWithReceivedAt creates a new DefaultMeta instance with
// explicit creation and received times. This is useful for testing
// or when importing historical data.
func NewDefaultMetaWithReceivedAt(createdAt, receivedAt time.Time, source string) *DefaultMeta {
	return &DefaultMeta{
		createdAt:  toUnixMs(createdAt),
		receivedAt: toUnixMs(receivedAt),
		source:     source,
	}
}

// CreatedAt returns when the original event occurred.
func (m *DefaultMeta) CreatedAt() time.Time {
	return toTime(m.createdAt)
}

// ReceivedAt returns when the system received the message.
func (m *DefaultMeta) ReceivedAt() time.Time {
	return toTime(m.receivedAt)
}

// Source returns the origin of the message.
func (m *DefaultMeta) Source() string {
	return m.source
}

// toUnixMs converts a time.Time to Unix milliseconds, zero-safe
func toUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// toTime converts Unix milliseconds back to time.Time, zero-safe
func toTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// parseTimestamp extracts Unix milliseconds from wire metadata values,
// accepting JSON numbers (float64) and int64
func parseTimestamp(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	case int:
		return int64(val)
	default:
		return 0
	}
}
