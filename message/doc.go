// Package message defines the message model flowing between BluemixPOC
// components over NATS.
//
// Messages are the fundamental unit of data flow. Each message combines a
// typed payload with metadata (creation time, receipt time, source) and a
// unique identifier. The wire format is JSON with an explicit type key so
// receivers can reconstruct typed payloads.
//
// Two payload types exist:
//
//   - EnvelopePayload (flow.envelope.v1): the flow-style message consumed by
//     output components. Mirrors the loosely-typed messages automation flows
//     produce: a "payload" field carrying the document material plus optional
//     top-level fields like "id" and "rev".
//
//   - ResultPayload (flow.result.v1): emitted by components after a store
//     operation. Carries the normalized result under "payload" and the raw
//     backend response under "cloudant" so downstream nodes can inspect
//     server-assigned identifiers and revision tokens.
//
// Example:
//
//	payload := message.NewEnvelope(map[string]any{
//	    "payload": map[string]any{"name": "alice"},
//	})
//	msg := message.NewBaseMessage(message.EnvelopeType, payload, "http-in")
package message
