// Package cloudant implements the document gateway core: connection profile
// resolution, database name normalization, document sanitization, and the
// write and read gateways that components compose per inbound message.
//
// A gateway node resolves a ConnectionProfile once at startup (from a named
// connection or a bound service descriptor), normalizes its configured
// database name, then processes each message independently:
//
//	outbound: coerce -> sanitize -> WriteGateway (insert or delete)
//	inbound:  ReadGateway.Query (ById, ByIndex, or All) -> Result
//
// The package talks to the backend through the Store interface so the kivik
// wrapper in storage/couchstore stays swappable in tests.
package cloudant
