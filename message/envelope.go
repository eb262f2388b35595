package message

import (
	"encoding/json"

	"github.com/Noaman7/BluemixPOC/errors"
)

// EnvelopePayload carries a flow-style message: a loosely typed JSON object
// with a "payload" field holding the document material plus optional
// top-level fields such as "id" and "rev".
//
// This is the well-known type flow.envelope.v1 consumed by output components
// and produced by whatever feeds the flow (HTTP listeners, timers, other
// nodes).
//
// Example:
//
//	payload := &EnvelopePayload{
//	    Data: map[string]any{
//	        "payload": map[string]any{"name": "alice"},
//	        "id":      "user-1",
//	    },
//	}
type EnvelopePayload struct {
	// Data contains the raw flow message as a map.
	// Arbitrary JSON structures are supported while remaining type-safe
	// at the component level.
	Data map[string]any `json:"data"`
}

// NewEnvelope creates a new envelope payload with the given data.
func NewEnvelope(data map[string]any) *EnvelopePayload {
	return &EnvelopePayload{
		Data: data,
	}
}

// Schema returns the payload type identifier for envelopes.
func (e *EnvelopePayload) Schema() Type {
	return EnvelopeType
}

// Validate performs basic validation on the envelope payload.
// Ensures the data map is not nil.
func (e *EnvelopePayload) Validate() error {
	if e.Data == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "EnvelopePayload", "Validate", "data cannot be nil")
	}
	return nil
}

// Body returns the document material of the message: the "payload" field
// when present, otherwise the whole message object. Flows that set fields
// directly on the message without a payload wrapper still write something
// useful.
func (e *EnvelopePayload) Body() any {
	if e.Data == nil {
		return nil
	}
	if body, ok := e.Data["payload"]; ok {
		return body
	}
	return e.Data
}

// DocumentID returns the target document identifier, checking the top-level
// "id" field first and falling back to "_id" inside the payload object.
// Returns empty string when absent.
func (e *EnvelopePayload) DocumentID() string {
	if id, ok := e.Data["id"].(string); ok && id != "" {
		return id
	}
	if body, ok := e.Data["payload"].(map[string]any); ok {
		if id, ok := body["_id"].(string); ok {
			return id
		}
	}
	return ""
}

// Revision returns the target document revision token, checking the
// top-level "rev" field first and falling back to "_rev" inside the payload
// object. Returns empty string when absent.
func (e *EnvelopePayload) Revision() string {
	if rev, ok := e.Data["rev"].(string); ok && rev != "" {
		return rev
	}
	if body, ok := e.Data["payload"].(map[string]any); ok {
		if rev, ok := body["_rev"].(string); ok {
			return rev
		}
	}
	return ""
}

// MarshalJSON serializes the envelope payload to JSON format.
func (e *EnvelopePayload) MarshalJSON() ([]byte, error) {
	// Use alias to avoid infinite recursion
	type Alias EnvelopePayload
	return json.Marshal((*Alias)(e))
}

// UnmarshalJSON deserializes JSON data into the envelope payload.
func (e *EnvelopePayload) UnmarshalJSON(data []byte) error {
	// Use alias to avoid infinite recursion
	type Alias EnvelopePayload
	return json.Unmarshal(data, (*Alias)(e))
}
