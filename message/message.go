package message

// Message represents the core message interface for the BluemixPOC platform.
// Messages are the fundamental unit of data flow, carrying typed payloads
// with metadata between components.
//
// Design principles:
//   - Infrastructure-agnostic: Messages contain only data, no routing or storage logic
//   - Flexible metadata: Meta interface allows different metadata implementations
//   - Content-addressable: Hash method enables deduplication and referencing
type Message interface {
	// ID returns a unique identifier for this message instance.
	// Typically a UUID, this ID is immutable and globally unique.
	ID() string

	// Type returns structured type information used for routing and processing.
	Type() Type

	// Payload returns the message payload.
	Payload() Payload

	// Meta returns metadata about the message lifecycle and origin.
	Meta() Meta

	// Hash returns a content-based hash for deduplication and storage.
	// The hash is computed from the message type and payload data.
	Hash() string

	// Validate performs comprehensive validation of the message.
	Validate() error
}
