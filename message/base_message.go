package message

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Noaman7/BluemixPOC/errors"
)

// BaseMessage provides the standard implementation of the Message interface.
// It combines a typed payload with metadata to create a complete message
// ready for transmission.
//
// BaseMessage is immutable after creation - all fields are set during
// construction and cannot be modified. This ensures message integrity
// throughout the processing pipeline.
//
// Construction uses functional options:
//
//	// Simple message (most common)
//	msg := NewBaseMessage(msgType, payload, "my-service")
//
//	// With specific timestamp (testing/historical data)
//	msg := NewBaseMessage(msgType, payload, "my-service", WithTime(pastTime))
type BaseMessage struct {
	id      string
	msgType Type
	payload Payload
	meta    Meta
}

// Option is a functional option for configuring BaseMessage construction.
type Option func(*BaseMessage)

// WithTime sets a specific creation timestamp instead of using time.Now().
// Useful for historical data import or testing.
func WithTime(createdAt time.Time) Option {
	return func(m *BaseMessage) {
		if defaultMeta, ok := m.meta.(*DefaultMeta); ok {
			m.meta = NewDefaultMeta(createdAt, defaultMeta.Source())
		}
	}
}

// WithMeta replaces the default metadata with a custom Meta implementation.
func WithMeta(meta Meta) Option {
	return func(m *BaseMessage) {
		m.meta = meta
	}
}

// NewBaseMessage creates a new BaseMessage with optional configuration.
//
// Parameters:
//   - msgType: Structured type information (domain, category, version)
//   - payload: The message payload implementing the Payload interface
//   - source: Identifier of the service or component creating this message
//   - opts: Optional configuration functions
func NewBaseMessage(msgType Type, payload Payload, source string, opts ...Option) *BaseMessage {
	m := &BaseMessage{
		id:      uuid.New().String(),
		msgType: msgType,
		payload: payload,
		meta:    NewDefaultMeta(time.Now(), source),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ID returns the unique message identifier.
func (m *BaseMessage) ID() string {
	return m.id
}

// Type returns the structured message type.
func (m *BaseMessage) Type() Type {
	return m.msgType
}

// Payload returns the message payload.
func (m *BaseMessage) Payload() Payload {
	return m.payload
}

// Meta returns the message metadata.
func (m *BaseMessage) Meta() Meta {
	return m.meta
}

// Hash returns a SHA256 hash of the message content.
// The hash includes the message type and payload data.
func (m *BaseMessage) Hash() string {
	h := sha256.New()

	if _, err := h.Write([]byte(m.msgType.String())); err != nil {
		// sha256 Write never fails, handled for interface compliance
		return ""
	}

	if data, err := m.payload.MarshalJSON(); err == nil {
		if _, err := h.Write(data); err != nil {
			return ""
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Validate performs comprehensive message validation.
func (m *BaseMessage) Validate() error {
	if !m.msgType.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate",
			fmt.Sprintf("invalid message type: %s", m.msgType.String()))
	}

	if m.payload == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate", "payload cannot be nil")
	}

	if err := m.payload.Validate(); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "Validate", "invalid payload")
	}

	if m.meta == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate", "meta cannot be nil")
	}

	return nil
}

// wireFormat represents the JSON wire format for BaseMessage.
type wireFormat struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Meta    map[string]any  `json:"meta"`
}

// MarshalJSON implements json.Marshaler for BaseMessage.
// This allows BaseMessage to be serialized to JSON even though
// its fields are private.
func (m *BaseMessage) MarshalJSON() ([]byte, error) {
	payloadData, err := m.payload.MarshalJSON()
	if err != nil {
		return nil, errors.WrapInvalid(err, "BaseMessage", "MarshalJSON", "failed to marshal payload")
	}

	// Metadata uses int64 unix-millisecond timestamps for consistency
	metaMap := map[string]any{
		"created_at":  toUnixMs(m.meta.CreatedAt()),
		"received_at": toUnixMs(m.meta.ReceivedAt()),
		"source":      m.meta.Source(),
	}

	wire := wireFormat{
		ID:      m.id,
		Type:    m.msgType,
		Payload: json.RawMessage(payloadData),
		Meta:    metaMap,
	}

	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler for BaseMessage.
// The payload is reconstructed from the well-known type key; unknown
// types are rejected.
func (m *BaseMessage) UnmarshalJSON(data []byte) error {
	var wire wireFormat
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "UnmarshalJSON", "failed to unmarshal wire format")
	}

	m.id = wire.ID
	m.msgType = wire.Type

	var createdAt, receivedAt time.Time
	var source string

	if ms := parseTimestamp(wire.Meta["created_at"]); ms != 0 {
		createdAt = toTime(ms)
	}
	if ms := parseTimestamp(wire.Meta["received_at"]); ms != 0 {
		receivedAt = toTime(ms)
	}
	if sourceStr, ok := wire.Meta["source"].(string); ok {
		source = sourceStr
	}

	m.meta = NewDefaultMetaWithReceivedAt(createdAt, receivedAt, source)

	payload := newPayloadForType(m.msgType)
	if payload == nil {
		return errors.WrapInvalid(
			fmt.Errorf("unregistered payload type: %s", m.msgType.String()),
			"BaseMessage", "UnmarshalJSON", "payload type lookup")
	}

	if err := json.Unmarshal(wire.Payload, payload); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "UnmarshalJSON", "failed to unmarshal payload")
	}
	m.payload = payload

	return nil
}
