package cloudant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noaman7/BluemixPOC/errors"
)

// fakeStore implements Store with scripted behavior and call counting.
type fakeStore struct {
	databases map[string]bool
	docs      map[string]map[string]any

	insertCalls int
	createCalls int
	deleteCalls int

	insertErr error // forced insert failure, overrides normal behavior
	createErr error // forced create failure
}

func newFakeStore(existing ...string) *fakeStore {
	dbs := make(map[string]bool)
	for _, db := range existing {
		dbs[db] = true
	}
	return &fakeStore{databases: dbs, docs: map[string]map[string]any{}}
}

func (f *fakeStore) CreateDatabase(_ context.Context, db string) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.databases[db] = true
	return nil
}

func (f *fakeStore) Insert(_ context.Context, db string, doc Document) (map[string]any, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if !f.databases[db] {
		return nil, errors.Wrap(errors.ErrDocumentNotFound, "fakeStore", "Insert", "database missing")
	}
	return map[string]any{"ok": true, "id": "generated", "rev": "1-abc"}, nil
}

func (f *fakeStore) Delete(_ context.Context, db, id, rev string) (map[string]any, error) {
	f.deleteCalls++
	if !f.databases[db] {
		return nil, errors.Wrap(errors.ErrDocumentNotFound, "fakeStore", "Delete", "database missing")
	}
	return map[string]any{"ok": true, "id": id, "rev": rev}, nil
}

func (f *fakeStore) Get(_ context.Context, db, id string) (map[string]any, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrDocumentNotFound, "fakeStore", "Get", "missing")
	}
	return doc, nil
}

func (f *fakeStore) Search(_ context.Context, _, _, _ string, _ SearchOptions) (map[string]any, error) {
	return nil, nil
}

func (f *fakeStore) AllDocs(_ context.Context, _ string, _ bool) (map[string]any, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func TestWriteGateway_Insert_ExistingDatabase(t *testing.T) {
	store := newFakeStore("orders")
	gw := NewWriteGateway(store, "orders")

	resp, err := gw.Insert(t.Context(), Document{"name": "alice"})
	require.NoError(t, err)

	assert.Equal(t, true, resp["ok"])
	// Exactly one insert, no create
	assert.Equal(t, 1, store.insertCalls)
	assert.Equal(t, 0, store.createCalls)
}

func TestWriteGateway_Insert_LazyCreate(t *testing.T) {
	store := newFakeStore()
	gw := NewWriteGateway(store, "orders")

	resp, err := gw.Insert(t.Context(), Document{"name": "alice"})
	require.NoError(t, err)

	assert.Equal(t, true, resp["ok"])
	// First insert misses, one create, second insert succeeds
	assert.Equal(t, 2, store.insertCalls)
	assert.Equal(t, 1, store.createCalls)
}

func TestWriteGateway_Insert_NotifyCreate(t *testing.T) {
	store := newFakeStore()
	gw := NewWriteGateway(store, "orders")

	var statuses []string
	gw.NotifyCreate(func(status string) { statuses = append(statuses, status) })

	_, err := gw.Insert(t.Context(), Document{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"success"}, statuses)

	store.createErr = errors.WrapTransient(errors.ErrStorageUnavailable, "fakeStore", "Create", "refused")
	store.databases = map[string]bool{}
	_, err = gw.Insert(t.Context(), Document{"name": "bob"})
	require.Error(t, err)
	assert.Equal(t, []string{"success", "error"}, statuses)
}

func TestWriteGateway_Insert_BudgetExhausted(t *testing.T) {
	// Creates report success but never take effect: the database stays missing
	neverCreates := newFakeStore()
	gw := NewWriteGateway(&vanishingStore{neverCreates}, "orders")

	_, err := gw.Insert(t.Context(), Document{"a": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDatabaseUnavailable)

	// Budget of 3 allows at most 3 create cycles and 4 insert attempts
	assert.Equal(t, 3, neverCreates.createCalls)
	assert.Equal(t, 4, neverCreates.insertCalls)
}

// vanishingStore counts creates but never makes the database appear.
type vanishingStore struct {
	*fakeStore
}

func (v *vanishingStore) CreateDatabase(_ context.Context, _ string) error {
	v.createCalls++
	return nil
}

func TestWriteGateway_Insert_OtherErrorTerminal(t *testing.T) {
	store := newFakeStore("orders")
	store.insertErr = errors.Wrap(errors.ErrInvalidData, "fakeStore", "Insert", "document rejected")
	gw := NewWriteGateway(store, "orders")

	_, err := gw.Insert(t.Context(), Document{"a": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	// No retry for non-missing-database errors
	assert.Equal(t, 1, store.insertCalls)
	assert.Equal(t, 0, store.createCalls)
}

func TestWriteGateway_Insert_CreateFailureTerminal(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.WrapTransient(errors.ErrStorageUnavailable, "fakeStore", "Create", "refused")
	gw := NewWriteGateway(store, "orders")

	_, err := gw.Insert(t.Context(), Document{"a": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
	assert.Equal(t, 1, store.insertCalls)
}

func TestWriteGateway_Delete(t *testing.T) {
	t.Run("requires id and rev", func(t *testing.T) {
		store := newFakeStore("orders")
		gw := NewWriteGateway(store, "orders")

		_, err := gw.Delete(t.Context(), Document{"_id": "a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrMissingDeletePrecondition)

		_, err = gw.Delete(t.Context(), Document{"_rev": "1-x"})
		assert.ErrorIs(t, err, errors.ErrMissingDeletePrecondition)

		// No backend round-trip happened
		assert.Equal(t, 0, store.deleteCalls)
	})

	t.Run("deletes with id and rev", func(t *testing.T) {
		store := newFakeStore("orders")
		gw := NewWriteGateway(store, "orders")

		resp, err := gw.Delete(t.Context(), Document{"_id": "a", "_rev": "1-x"})
		require.NoError(t, err)
		assert.Equal(t, "a", resp["id"])
		assert.Equal(t, 1, store.deleteCalls)
	})
}

func TestWriteGateway_EndToEnd(t *testing.T) {
	// The scenario from top to bottom: normalize, sanitize, insert once.
	db, changed := NormalizeDatabaseName("My Orders/2024")
	assert.Equal(t, "my-orders-2024", db)
	assert.True(t, changed)

	doc, renamed, err := Sanitize(Document{"_secret": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_secret"}, renamed)
	assert.Equal(t, Document{"secret": "x"}, doc)

	store := newFakeStore(db)
	gw := NewWriteGateway(store, db)
	_, err = gw.Insert(t.Context(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, store.insertCalls)
}
