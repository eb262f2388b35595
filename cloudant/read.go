package cloudant

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Noaman7/BluemixPOC/errors"
)

// DefaultSearchLimit bounds ByIndex result sets when the caller sets none.
const DefaultSearchLimit = 200

// designDocPrefix marks backend meta documents excluded from listings.
const designDocPrefix = "_design/"

// QueryMode selects the read strategy. Fixed per node instance at
// configuration time, never message-dependent.
type QueryMode int

const (
	// QueryByID fetches a single document by identifier
	QueryByID QueryMode = iota
	// QueryByIndex runs a search against a design document index
	QueryByIndex
	// QueryAll lists every regular document in the database
	QueryAll
)

// String returns the configuration name of the mode.
func (m QueryMode) String() string {
	switch m {
	case QueryByID:
		return "id"
	case QueryByIndex:
		return "index"
	case QueryAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseQueryMode maps a configuration string onto a QueryMode.
func ParseQueryMode(s string) (QueryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "id", "byid", "_id_":
		return QueryByID, nil
	case "index", "byindex", "search", "_idx_":
		return QueryByIndex, nil
	case "all", "_all_":
		return QueryAll, nil
	default:
		return 0, errors.WrapInvalid(errors.ErrInvalidConfig, "QueryMode", "Parse",
			fmt.Sprintf("unknown query mode %q", s))
	}
}

// QueryParams carry the per-message inputs of a read operation. Payload is
// the inbound message body; the remaining fields come from node
// configuration or an explicit query override in the message.
type QueryParams struct {
	Payload any
	Query   string // pre-built search query, ByIndex only
	Design  string // design document name, ByIndex only
	Index   string // search index name, ByIndex only
	Sort    any    // sort specification, serialized before sending
	Limit   int    // result cap, 0 means DefaultSearchLimit
}

// Result is the normalized outcome of a read: the payload for downstream
// nodes, the raw backend response for inspection, and an optional warning
// for recoverable-as-empty outcomes.
type Result struct {
	Payload any
	Raw     any
	Warning string
}

// ReadGateway dispatches read queries against one database. Like the write
// gateway it is read-only after construction and safe under concurrent
// messages.
type ReadGateway struct {
	store Reader
	db    string
}

// NewReadGateway creates a read gateway bound to a normalized database name.
func NewReadGateway(store Reader, db string) *ReadGateway {
	return &ReadGateway{store: store, db: db}
}

// Query runs one read strategy and normalizes the result. A ById miss is
// recoverable-as-empty: the result carries a null payload and a warning, not
// an error. Every other backend failure is a hard error.
func (g *ReadGateway) Query(ctx context.Context, mode QueryMode, params QueryParams) (*Result, error) {
	switch mode {
	case QueryByID:
		return g.byID(ctx, params)
	case QueryByIndex:
		return g.byIndex(ctx, params)
	case QueryAll:
		return g.all(ctx)
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "ReadGateway", "Query",
			fmt.Sprintf("unsupported query mode %d", mode))
	}
}

// Database returns the bound database name.
func (g *ReadGateway) Database() string {
	return g.db
}

func (g *ReadGateway) byID(ctx context.Context, params QueryParams) (*Result, error) {
	id := extractIdentifier(params.Payload)
	if id == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "ReadGateway", "Query",
			"payload yields no document identifier")
	}

	doc, err := g.store.Get(ctx, g.db, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrDocumentNotFound) {
			return &Result{
				Payload: nil,
				Warning: fmt.Sprintf("document %q not found in database %q", id, g.db),
			}, nil
		}
		return nil, errors.Wrap(err, "ReadGateway", "Query",
			fmt.Sprintf("fetching %q from %q", id, g.db))
	}

	return &Result{Payload: doc, Raw: doc}, nil
}

func (g *ReadGateway) byIndex(ctx context.Context, params QueryParams) (*Result, error) {
	query := params.Query
	if query == "" {
		query = buildSearchQuery(params.Payload)
	}

	opts := SearchOptions{
		Query:       query,
		Limit:       params.Limit,
		IncludeDocs: true,
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if params.Sort != nil {
		serialized, err := serializeSort(params.Sort)
		if err != nil {
			return nil, errors.WrapInvalid(err, "ReadGateway", "Query", "serializing sort specification")
		}
		opts.Sort = serialized
	}

	raw, err := g.store.Search(ctx, g.db, params.Design, params.Index, opts)
	if err != nil {
		return nil, errors.Wrap(err, "ReadGateway", "Query",
			fmt.Sprintf("searching %s/%s in %q", params.Design, params.Index, g.db))
	}

	return &Result{Payload: normalizePayload(raw), Raw: raw}, nil
}

func (g *ReadGateway) all(ctx context.Context) (*Result, error) {
	raw, err := g.store.AllDocs(ctx, g.db, true)
	if err != nil {
		return nil, errors.Wrap(err, "ReadGateway", "Query",
			fmt.Sprintf("listing documents in %q", g.db))
	}

	return &Result{Payload: normalizePayload(raw), Raw: raw}, nil
}

// extractIdentifier pulls a document identifier from the inbound payload: a
// mapping's "id" or "_id" field when present, otherwise the payload itself.
func extractIdentifier(payload any) string {
	if m, ok := payload.(map[string]any); ok {
		for _, key := range []string{"id", "_id"} {
			if v, ok := m[key]; ok {
				if s, ok := v.(string); ok && s != "" {
					return s
				}
			}
		}
		return ""
	}
	if s, ok := payload.(string); ok {
		return s
	}
	if payload == nil {
		return ""
	}
	return fmt.Sprintf("%v", payload)
}

// buildSearchQuery infers a Lucene-style query from the payload: mappings
// become space-joined field:value pairs (sorted by field for determinism),
// anything else is used verbatim.
func buildSearchQuery(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		if payload == nil {
			return ""
		}
		return fmt.Sprintf("%v", payload)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s:%v", k, m[k]))
	}
	return strings.Join(pairs, " ")
}

// serializeSort renders a sort specification as the string the backend
// expects. String specifications pass through; anything else is JSON.
func serializeSort(spec any) (string, error) {
	if s, ok := spec.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// normalizePayload flattens a paginated backend response into an array of
// documents, excluding design documents. Responses without a rows collection
// pass through unchanged.
func normalizePayload(raw map[string]any) any {
	rows, ok := raw["rows"].([]any)
	if !ok {
		return raw
	}

	docs := make([]any, 0, len(rows))
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := row["id"].(string); ok && strings.HasPrefix(id, designDocPrefix) {
			continue
		}
		if doc, ok := row["doc"]; ok && doc != nil {
			docs = append(docs, doc)
			continue
		}
		docs = append(docs, row)
	}
	return docs
}
