package message

import (
	"fmt"
)

// Keyable interface represents types that can be converted to semantic keys
// using dotted notation. Keys drive NATS subject construction and consistent
// storage patterns.
type Keyable interface {
	// Key returns the dotted notation representation of this type.
	// Example: "flow.envelope.v1"
	Key() string
}

// Type provides structured type information for messages.
// It enables type-safe routing and processing by clearly identifying
// the domain, category, and version of each message.
//
// Type constants should be defined close to the payloads they describe:
//
//	var EnvelopeType = message.Type{
//	    Domain:   "flow",
//	    Category: "envelope",
//	    Version:  "v1",
//	}
type Type struct {
	// Domain identifies the business or system domain.
	// Examples: "flow", "documents"
	Domain string

	// Category identifies the specific message type within the domain.
	// Examples: "envelope", "result"
	Category string

	// Version identifies the schema version.
	// Format: "v1", "v2", etc. Enables schema evolution.
	Version string
}

// Key returns the dotted notation representation: "domain.category.version"
// This implements the Keyable interface for unified semantic keys.
func (mt Type) Key() string {
	return fmt.Sprintf("%s.%s.%s", mt.Domain, mt.Category, mt.Version)
}

// String returns the same as Key() for backwards compatibility
func (mt Type) String() string {
	return mt.Key()
}

// IsValid checks if the Type has all required fields populated
// with non-empty values.
func (mt Type) IsValid() bool {
	return mt.Domain != "" && mt.Category != "" && mt.Version != ""
}

// Equal compares two Type instances for equality.
func (mt Type) Equal(other Type) bool {
	return mt.Domain == other.Domain &&
		mt.Category == other.Category &&
		mt.Version == other.Version
}

// Well-known message types
var (
	// EnvelopeType identifies flow-style envelope messages
	EnvelopeType = Type{Domain: "flow", Category: "envelope", Version: "v1"}

	// ResultType identifies operation result messages
	ResultType = Type{Domain: "flow", Category: "result", Version: "v1"}
)
