package message

import "encoding/json"

// Payload represents the data carried by a message.
// All message payloads must implement this interface to provide
// schema information, validation, and serialization capabilities.
type Payload interface {
	// Schema returns the Type that defines this payload's structure.
	// This enables type-safe routing and processing throughout the system.
	Schema() Type

	// Validate checks the payload data for correctness.
	// Returns nil if valid, or an error describing the validation failure.
	Validate() error

	// JSON serialization using standard Go interfaces.
	// Payloads must implement json.Marshaler and json.Unmarshaler
	// for deterministic serialization. The same payload must always
	// produce the same JSON output.
	json.Marshaler
	json.Unmarshaler
}

// newPayloadForType returns an empty payload instance for a well-known type,
// or nil for unregistered types. Used by BaseMessage.UnmarshalJSON to
// reconstruct typed payloads from the wire.
func newPayloadForType(t Type) Payload {
	switch {
	case t.Equal(EnvelopeType):
		return &EnvelopePayload{}
	case t.Equal(ResultType):
		return &ResultPayload{}
	default:
		return nil
	}
}
