// Package couchstore implements the backend document store over the kivik
// CouchDB client. It exposes exactly the surface the gateway needs: create
// database, insert, delete, get, all-docs listing, and Lucene search against
// a design document index.
//
// Backend failures are mapped to classified errors; an HTTP 404 from any
// operation unwraps to errors.ErrDocumentNotFound so the gateways can tell
// a missing resource from other failure classes. An HTTP 412 on database
// creation is treated as success, which makes racing creators safe.
package couchstore
