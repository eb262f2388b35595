package cloudant

import "context"

// SearchOptions carry the backend search parameters for ByIndex queries.
// Sort is the serialized sort specification, empty when unsorted.
type SearchOptions struct {
	Query       string
	Limit       int
	IncludeDocs bool
	Sort        string
}

// Writer is the backend surface the write gateway needs. Backend "resource
// not found" failures must unwrap to errors.ErrDocumentNotFound so the
// gateway can tell a missing database from other failure classes.
type Writer interface {
	CreateDatabase(ctx context.Context, db string) error
	Insert(ctx context.Context, db string, doc Document) (map[string]any, error)
	Delete(ctx context.Context, db, id, rev string) (map[string]any, error)
}

// Reader is the backend surface the read gateway needs, with the same
// not-found convention as Writer.
type Reader interface {
	Get(ctx context.Context, db, id string) (map[string]any, error)
	Search(ctx context.Context, db, design, index string, opts SearchOptions) (map[string]any, error)
	AllDocs(ctx context.Context, db string, includeDocs bool) (map[string]any, error)
}

// Store is the full backend surface a gateway node holds for its lifetime.
// storage/couchstore provides the kivik-backed implementation.
type Store interface {
	Writer
	Reader
	Close() error
}
