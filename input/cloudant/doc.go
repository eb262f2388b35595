// Package cloudant provides the inbound gateway node: it receives query
// trigger messages over NATS, runs one of three read strategies against a
// Cloudant-style database, and emits the normalized result on its output
// port.
//
// The query mode is fixed per node instance at configuration time:
//
//	id:    fetch a single document; a miss is a warning and a null payload,
//	       never an error
//	index: Lucene search against a design document index, with the query
//	       inferred from the payload when none is supplied
//	all:   list every regular document, excluding design documents
//
// Results travel as flow.result.v1 messages: the normalized payload under
// "payload" and the raw backend response under "cloudant".
package cloudant
