package message

import "time"

// Meta provides metadata about a message's lifecycle and origin.
// This interface enables tracking of when messages were created,
// when they entered the system, and where they originated.
type Meta interface {
	// CreatedAt returns when the original event occurred.
	CreatedAt() time.Time

	// ReceivedAt returns when the message entered the processing system.
	// This helps track ingestion latency and message age.
	// May be the same as CreatedAt for real-time streams.
	ReceivedAt() time.Time

	// Source returns the identifier of the message originator.
	// Examples: "cloudant-in", "http-listener-1"
	// Used for debugging, tracing, and access control.
	Source() string
}
