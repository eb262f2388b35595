// Package cloudant provides the outbound gateway node: it receives flow
// messages over NATS, sanitizes them into documents, and writes them to a
// Cloudant-style database through the write gateway.
//
// The node resolves its connection profile once at startup from either a
// registered named connection or a bound service descriptor, normalizes the
// configured database name, and holds one backend client handle for its
// lifetime. Each inbound message triggers an independent operation; messages
// are not serialized against each other.
//
// Two operations are supported, selected by static configuration:
//
//	insert: coerce payload -> sanitize reserved-prefix fields -> insert,
//	        lazily creating the database with a bounded retry budget
//	delete: requires the message to carry both a document id and revision;
//	        missing either fails locally without a backend round-trip
//
// Successful operations optionally emit a result message (backend id and
// revision) on the node's output port. Failures and warnings go to the flow's
// reporting channel via the component logger.
package cloudant
