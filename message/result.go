package message

import (
	"encoding/json"
)

// ResultPayload is emitted by components after a document store operation.
// The normalized result travels under "payload"; the raw backend response is
// preserved under "cloudant" so downstream nodes can inspect server-assigned
// identifiers, revision tokens, bookmarks, and other backend detail without
// it polluting the primary payload.
//
// Payload is null for by-identifier lookups that found nothing; the emitting
// component reports a warning in that case rather than an error.
type ResultPayload struct {
	// Payload holds the normalized operation result: a document, a list of
	// documents, or null
	Payload any `json:"payload"`

	// Cloudant holds the raw backend response for the operation
	Cloudant any `json:"cloudant,omitempty"`
}

// NewResult creates a result payload with the normalized result and the raw
// backend response.
func NewResult(payload, cloudant any) *ResultPayload {
	return &ResultPayload{
		Payload:  payload,
		Cloudant: cloudant,
	}
}

// Schema returns the payload type identifier for results.
func (r *ResultPayload) Schema() Type {
	return ResultType
}

// Validate performs basic validation on the result payload.
// A nil Payload is valid: lookups that miss produce a null payload.
func (r *ResultPayload) Validate() error {
	return nil
}

// MarshalJSON serializes the result payload to JSON format.
func (r *ResultPayload) MarshalJSON() ([]byte, error) {
	// Use alias to avoid infinite recursion
	type Alias ResultPayload
	return json.Marshal((*Alias)(r))
}

// UnmarshalJSON deserializes JSON data into the result payload.
func (r *ResultPayload) UnmarshalJSON(data []byte) error {
	// Use alias to avoid infinite recursion
	type Alias ResultPayload
	return json.Unmarshal(data, (*Alias)(r))
}
