package cloudant

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/Noaman7/BluemixPOC/errors"
)

// InsertRetryBudget is the number of create-then-retry cycles an insert may
// consume when the target database does not exist yet.
const InsertRetryBudget = 3

// WriteGateway performs insert and delete operations against one database.
// The store handle and database name are read-only after construction, so
// concurrent messages need no locking.
type WriteGateway struct {
	store    Writer
	db       string
	onCreate func(status string)
}

// NewWriteGateway creates a write gateway bound to a normalized database name.
func NewWriteGateway(store Writer, db string) *WriteGateway {
	return &WriteGateway{store: store, db: db}
}

// NotifyCreate registers a callback invoked after each lazy database
// creation attempt with status "success" or "error". Must be set before the
// gateway handles traffic.
func (g *WriteGateway) NotifyCreate(fn func(status string)) {
	g.onCreate = fn
}

// Insert writes the document, lazily creating the database when the backend
// reports it missing. Each missing-database failure consumes one unit of the
// retry budget; exhausting the budget converts the failure into a terminal
// ErrDatabaseUnavailable. Any other backend error is terminal and surfaced
// as-is. Racing creators on the same name are accepted: the store treats an
// already-existing database as created.
func (g *WriteGateway) Insert(ctx context.Context, doc Document) (map[string]any, error) {
	budget := InsertRetryBudget

	for {
		resp, err := g.store.Insert(ctx, g.db, doc)
		if err == nil {
			return resp, nil
		}

		if !stderrors.Is(err, errors.ErrDocumentNotFound) {
			return nil, errors.Wrap(err, "WriteGateway", "Insert",
				fmt.Sprintf("inserting into %q", g.db))
		}

		if budget == 0 {
			return nil, errors.Wrap(errors.ErrDatabaseUnavailable, "WriteGateway", "Insert",
				fmt.Sprintf("database %q still missing after %d create attempts", g.db, InsertRetryBudget))
		}
		budget--

		if cerr := g.store.CreateDatabase(ctx, g.db); cerr != nil {
			if g.onCreate != nil {
				g.onCreate("error")
			}
			return nil, errors.Wrap(cerr, "WriteGateway", "Insert",
				fmt.Sprintf("creating database %q", g.db))
		}
		if g.onCreate != nil {
			g.onCreate("success")
		}
	}
}

// Delete removes the document named by the input. The input must carry both
// an identifier and a revision; when either is absent the call fails locally
// with ErrMissingDeletePrecondition and no backend round-trip is made.
func (g *WriteGateway) Delete(ctx context.Context, doc Document) (map[string]any, error) {
	id, okID := doc.ID()
	rev, okRev := doc.Revision()
	if !okID || !okRev {
		return nil, errors.WrapInvalid(errors.ErrMissingDeletePrecondition, "WriteGateway", "Delete",
			fmt.Sprintf("document for %q needs both _id and _rev", g.db))
	}

	resp, err := g.store.Delete(ctx, g.db, id, rev)
	if err != nil {
		return nil, errors.Wrap(err, "WriteGateway", "Delete",
			fmt.Sprintf("deleting %q from %q", id, g.db))
	}
	return resp, nil
}

// Database returns the bound database name.
func (g *WriteGateway) Database() string {
	return g.db
}
