package couchstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // registers the "couch" driver

	"github.com/Noaman7/BluemixPOC/cloudant"
	"github.com/Noaman7/BluemixPOC/errors"
	"github.com/Noaman7/BluemixPOC/pkg/retry"
)

// defaultRequestTimeout bounds the raw HTTP search calls. The kivik calls
// inherit their deadline from the caller's context.
const defaultRequestTimeout = 30 * time.Second

// connectRetry backs off on the initial reachability probe. Cloudant
// instances routinely drop a request during scaling events.
var connectRetry = retry.Config{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
	AddJitter:    true,
}

// Store is the kivik-backed implementation of cloudant.Store. One Store is
// held per gateway node for its lifetime; all methods are safe for
// concurrent use.
type Store struct {
	client  *kivik.Client
	baseURL string
	httpc   *http.Client
}

// compile-time check
var _ cloudant.Store = (*Store)(nil)

// Connect opens a client for the resolved connection profile and verifies
// the backend is reachable.
func Connect(ctx context.Context, profile cloudant.ConnectionProfile) (*Store, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return ConnectURL(ctx, profile.URL())
}

// ConnectURL opens a client against an explicit base URL. Used directly in
// tests and by local deployments that talk to a plain CouchDB.
func ConnectURL(ctx context.Context, base string) (*Store, error) {
	client, err := kivik.New("couch", base)
	if err != nil {
		return nil, errors.WrapFatal(err, "couchstore", "Connect", "creating backend client")
	}

	err = retry.Do(ctx, connectRetry, func() error {
		_, verr := client.Version(ctx)
		if verr == nil {
			return nil
		}
		if status := kivik.HTTPStatus(verr); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return retry.NonRetryable(verr)
		}
		return verr
	})
	if err != nil {
		if retry.IsNonRetryable(err) {
			return nil, errors.WrapFatal(err, "couchstore", "Connect", "authenticating against backend")
		}
		return nil, errors.WrapTransient(err, "couchstore", "Connect", "reaching backend")
	}

	return &Store{
		client:  client,
		baseURL: base,
		httpc:   &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

// CreateDatabase creates the named database. An already-existing database is
// treated as created so concurrent creators do not fail each other.
func (s *Store) CreateDatabase(ctx context.Context, db string) error {
	err := s.client.CreateDB(ctx, db)
	if err == nil {
		return nil
	}
	if status := kivik.HTTPStatus(err); status == http.StatusPreconditionFailed || status == http.StatusConflict {
		return nil
	}
	return s.classify(err, "CreateDatabase", fmt.Sprintf("creating %q", db))
}

// Insert writes the document. Documents carrying an _id are stored under it;
// otherwise the backend assigns one. The response mirrors the backend's
// {ok, id, rev} body.
func (s *Store) Insert(ctx context.Context, db string, doc cloudant.Document) (map[string]any, error) {
	handle := s.client.DB(db)

	var id string
	var rev string
	var err error

	if docID, ok := doc.ID(); ok {
		id = docID
		rev, err = handle.Put(ctx, docID, doc)
	} else {
		id, rev, err = handle.CreateDoc(ctx, doc)
	}
	if err != nil {
		return nil, s.classify(err, "Insert", fmt.Sprintf("inserting into %q", db))
	}

	return map[string]any{"ok": true, "id": id, "rev": rev}, nil
}

// Delete removes the document revision and returns the backend's response.
func (s *Store) Delete(ctx context.Context, db, id, rev string) (map[string]any, error) {
	newRev, err := s.client.DB(db).Delete(ctx, id, rev)
	if err != nil {
		return nil, s.classify(err, "Delete", fmt.Sprintf("deleting %q from %q", id, db))
	}
	return map[string]any{"ok": true, "id": id, "rev": newRev}, nil
}

// Get fetches a single document by identifier.
func (s *Store) Get(ctx context.Context, db, id string) (map[string]any, error) {
	var doc map[string]any
	if err := s.client.DB(db).Get(ctx, id).ScanDoc(&doc); err != nil {
		return nil, s.classify(err, "Get", fmt.Sprintf("fetching %q from %q", id, db))
	}
	return doc, nil
}

// AllDocs lists the database's documents in the backend's paginated shape:
// a map with a "rows" array of {id, doc} entries.
func (s *Store) AllDocs(ctx context.Context, db string, includeDocs bool) (map[string]any, error) {
	rs := s.client.DB(db).AllDocs(ctx, kivik.Param("include_docs", includeDocs))
	defer rs.Close()

	rows := []any{}
	for rs.Next() {
		id, err := rs.ID()
		if err != nil {
			return nil, s.classify(err, "AllDocs", fmt.Sprintf("reading row id in %q", db))
		}
		row := map[string]any{"id": id}
		if includeDocs {
			var doc map[string]any
			if err := rs.ScanDoc(&doc); err != nil {
				return nil, s.classify(err, "AllDocs", fmt.Sprintf("reading row document in %q", db))
			}
			row["doc"] = doc
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, s.classify(err, "AllDocs", fmt.Sprintf("listing %q", db))
	}

	return map[string]any{"total_rows": len(rows), "rows": rows}, nil
}

// Search runs a Lucene query against a design document search index. kivik
// does not expose the _search endpoint, so this goes over raw HTTP against
// the same base URL.
func (s *Store) Search(ctx context.Context, db, design, index string, opts cloudant.SearchOptions) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/%s/_design/%s/_search/%s",
		s.baseURL, url.PathEscape(db), url.PathEscape(design), url.PathEscape(index))

	params := url.Values{}
	params.Set("q", opts.Query)
	params.Set("include_docs", strconv.FormatBool(opts.IncludeDocs))
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.WrapInvalid(err, "couchstore", "Search", "building search request")
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "couchstore", "Search", "calling search endpoint")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransient(err, "couchstore", "Search", "reading search response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrap(
			fmt.Errorf("%w: %s", errors.ErrDocumentNotFound, truncate(string(body), 256)),
			"couchstore", "Search",
			fmt.Sprintf("search index %s/%s in %q", design, index, db))
	}
	if resp.StatusCode >= 400 {
		return nil, errors.Wrap(
			fmt.Errorf("backend returned %d: %s", resp.StatusCode, truncate(string(body), 256)),
			"couchstore", "Search", "search request")
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.WrapInvalid(err, "couchstore", "Search", "decoding search response")
	}
	return result, nil
}

// Close releases the backend client.
func (s *Store) Close() error {
	s.httpc.CloseIdleConnections()
	return s.client.Close()
}

// classify maps a kivik error onto the gateway's error taxonomy using the
// embedded HTTP status.
func (s *Store) classify(err error, method, action string) error {
	switch status := kivik.HTTPStatus(err); {
	case status == http.StatusNotFound:
		// Keep the backend's description alongside the sentinel
		return errors.Wrap(fmt.Errorf("%w: %w", errors.ErrDocumentNotFound, err), "couchstore", method, action)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.WrapFatal(err, "couchstore", method, action)
	case status >= 500:
		return errors.WrapTransient(err, "couchstore", method, action)
	default:
		return errors.Wrap(err, "couchstore", method, action)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
