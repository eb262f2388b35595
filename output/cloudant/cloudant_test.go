package cloudant

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gateway "github.com/Noaman7/BluemixPOC/cloudant"
	"github.com/Noaman7/BluemixPOC/component"
	"github.com/Noaman7/BluemixPOC/errors"
	"github.com/Noaman7/BluemixPOC/message"
)

// fakeStore records gateway calls against an in-memory database set.
type fakeStore struct {
	databases map[string]bool

	insertCalls int
	createCalls int
	deleteCalls int

	lastDoc gateway.Document
	lastID  string
	lastRev string
}

func newFakeStore(existing ...string) *fakeStore {
	dbs := map[string]bool{}
	for _, db := range existing {
		dbs[db] = true
	}
	return &fakeStore{databases: dbs}
}

func (f *fakeStore) CreateDatabase(_ context.Context, db string) error {
	f.createCalls++
	f.databases[db] = true
	return nil
}

func (f *fakeStore) Insert(_ context.Context, db string, doc gateway.Document) (map[string]any, error) {
	f.insertCalls++
	if !f.databases[db] {
		return nil, errors.Wrap(errors.ErrDocumentNotFound, "fakeStore", "Insert", "database missing")
	}
	f.lastDoc = doc
	return map[string]any{"ok": true, "id": "gen", "rev": "1-abc"}, nil
}

func (f *fakeStore) Delete(_ context.Context, db, id, rev string) (map[string]any, error) {
	f.deleteCalls++
	f.lastID = id
	f.lastRev = rev
	return map[string]any{"ok": true, "id": id, "rev": rev}, nil
}

func (f *fakeStore) Get(context.Context, string, string) (map[string]any, error) {
	return nil, errors.ErrDocumentNotFound
}

func (f *fakeStore) Search(context.Context, string, string, string, gateway.SearchOptions) (map[string]any, error) {
	return nil, nil
}

func (f *fakeStore) AllDocs(context.Context, string, bool) (map[string]any, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func testConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{Name: "input", Type: "nats", Subject: "test.documents", Required: true},
			},
		},
		Database:   "orders",
		Connection: "main",
	}
}

// newTestOutput builds an output wired to a fake store, bypassing the
// profile resolution and backend connection done by Initialize/Start.
func newTestOutput(t *testing.T, config Config, store *fakeStore) *Output {
	t.Helper()

	rawConfig, err := json.Marshal(config)
	require.NoError(t, err)

	out, err := NewOutput(rawConfig, component.Dependencies{})
	require.NoError(t, err)

	output, ok := out.(*Output)
	require.True(t, ok)

	db, _ := gateway.NormalizeDatabaseName(config.Database)
	output.store = store
	output.writer = gateway.NewWriteGateway(store, db)
	return output
}

func TestOutput_Creation(t *testing.T) {
	rawConfig, err := json.Marshal(testConfig())
	require.NoError(t, err)

	output, err := NewOutput(rawConfig, component.Dependencies{})
	require.NoError(t, err)

	meta := output.Meta()
	assert.Equal(t, "cloudant-output", meta.Name)
	assert.Equal(t, "output", meta.Type)

	ports := output.InputPorts()
	require.Len(t, ports, 1)
	assert.Equal(t, component.DirectionInput, ports[0].Direction)

	// No result port configured
	assert.Empty(t, output.OutputPorts())
}

func TestOutput_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Len(t, config.Ports.Inputs, 1)
	assert.Len(t, config.Ports.Outputs, 1)
	assert.Equal(t, OperationInsert, config.Operation)
	assert.Equal(t, "payload", config.PayloadField)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		config := testConfig()
		assert.NoError(t, config.Validate())
	})

	t.Run("missing database", func(t *testing.T) {
		config := testConfig()
		config.Database = ""
		assert.Error(t, config.Validate())
	})

	t.Run("unknown operation", func(t *testing.T) {
		config := testConfig()
		config.Operation = "upsert"
		assert.Error(t, config.Validate())
	})

	t.Run("needs a credential source", func(t *testing.T) {
		config := testConfig()
		config.Connection = ""
		config.Service = ""
		err := config.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoCredentials)
	})
}

func TestOutput_Initialize_BoundService(t *testing.T) {
	t.Setenv("VCAP_SERVICES", `{
		"cloudantNoSQLDB": [
			{"name": "orders-db", "credentials": {
				"host": "acct.cloudant.com", "username": "u", "password": "p"}}
		]
	}`)

	config := testConfig()
	config.Connection = ""
	config.Service = "orders-db"

	rawConfig, err := json.Marshal(config)
	require.NoError(t, err)

	out, err := NewOutput(rawConfig, component.Dependencies{})
	require.NoError(t, err)

	lifecycle, ok := out.(component.LifecycleComponent)
	require.True(t, ok)
	require.NoError(t, lifecycle.Initialize())

	output := out.(*Output)
	assert.Equal(t, "acct", output.profile.Account)
}

func TestOutput_Initialize_UnresolvableProfile(t *testing.T) {
	t.Setenv("VCAP_SERVICES", "")

	config := testConfig()
	config.Connection = ""
	config.Service = "ghost"

	rawConfig, err := json.Marshal(config)
	require.NoError(t, err)

	out, err := NewOutput(rawConfig, component.Dependencies{})
	require.NoError(t, err)

	err = out.(*Output).Initialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoCredentials)
}

func TestOutput_InsertDocument(t *testing.T) {
	t.Run("sanitizes before writing", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		envelope := message.NewEnvelope(map[string]any{
			"payload": map[string]any{"_secret": "x", "name": "alice"},
		})

		resp, err := output.insertDocument(t.Context(), envelope)
		require.NoError(t, err)
		assert.Equal(t, true, resp["ok"])

		assert.Equal(t, 1, store.insertCalls)
		assert.Equal(t, gateway.Document{"secret": "x", "name": "alice"}, store.lastDoc)
	})

	t.Run("lazily creates the database", func(t *testing.T) {
		store := newFakeStore()
		output := newTestOutput(t, testConfig(), store)

		envelope := message.NewEnvelope(map[string]any{"payload": map[string]any{"a": 1}})
		_, err := output.insertDocument(t.Context(), envelope)
		require.NoError(t, err)

		assert.Equal(t, 1, store.createCalls)
		assert.Equal(t, 2, store.insertCalls)
	})

	t.Run("scalar payload wrapped under fallback field", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		envelope := message.NewEnvelope(map[string]any{"payload": "just text"})
		_, err := output.insertDocument(t.Context(), envelope)
		require.NoError(t, err)
		assert.Equal(t, gateway.Document{"payload": "just text"}, store.lastDoc)
	})
}

func TestOutput_DeleteDocument(t *testing.T) {
	t.Run("missing revision fails locally", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		envelope := message.NewEnvelope(map[string]any{
			"payload": map[string]any{"_id": "order-1"},
		})

		_, err := output.deleteDocument(t.Context(), envelope)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrMissingDeletePrecondition)
		assert.Equal(t, 0, store.deleteCalls)
	})

	t.Run("message level id and rev used as fallback", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		envelope := message.NewEnvelope(map[string]any{
			"id":      "order-1",
			"rev":     "2-def",
			"payload": map[string]any{},
		})

		_, err := output.deleteDocument(t.Context(), envelope)
		require.NoError(t, err)
		assert.Equal(t, "order-1", store.lastID)
		assert.Equal(t, "2-def", store.lastRev)
	})
}

func TestOutput_HandleMessage(t *testing.T) {
	t.Run("flow message inserted", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		msg := message.NewBaseMessage(message.EnvelopeType,
			message.NewEnvelope(map[string]any{"payload": map[string]any{"name": "alice"}}),
			"test")
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		output.handleMessage(t.Context(), data)

		assert.Equal(t, 1, store.insertCalls)
		assert.Equal(t, int64(1), atomic.LoadInt64(&output.messagesWritten))
		assert.Equal(t, int64(0), atomic.LoadInt64(&output.errorCount))
	})

	t.Run("bare JSON treated as payload", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		output.handleMessage(t.Context(), []byte(`{"name":"bob"}`))

		assert.Equal(t, gateway.Document{"name": "bob"}, store.lastDoc)
	})

	t.Run("late message after stop is dropped", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		output.mu.Lock()
		output.running = true
		output.mu.Unlock()
		require.NoError(t, output.Stop(time.Second))

		// A delivery racing shutdown must not reach the closed store
		output.handleMessage(t.Context(), []byte(`{"name":"late"}`))

		assert.Equal(t, 0, store.insertCalls)
		assert.Equal(t, int64(0), atomic.LoadInt64(&output.messagesWritten))
	})

	t.Run("sanitize conflict counted as error", func(t *testing.T) {
		store := newFakeStore("orders")
		output := newTestOutput(t, testConfig(), store)

		output.handleMessage(t.Context(), []byte(`{"_secret":"x","secret":"y"}`))

		assert.Equal(t, 0, store.insertCalls)
		assert.Equal(t, int64(1), atomic.LoadInt64(&output.errorCount))
	})
}

func TestOutput_HealthAndFlow(t *testing.T) {
	store := newFakeStore("orders")
	output := newTestOutput(t, testConfig(), store)

	health := output.Health()
	assert.False(t, health.Healthy) // not started

	output.handleMessage(t.Context(), []byte(`{"name":"a"}`))
	flow := output.DataFlow()
	assert.Zero(t, flow.ErrorRate)
	assert.False(t, flow.LastActivity.IsZero())
}
