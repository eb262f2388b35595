//go:build integration

package couchstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Noaman7/BluemixPOC/cloudant"
	"github.com/Noaman7/BluemixPOC/errors"
)

// startCouchDBContainer starts a CouchDB container and returns its base URL
// with admin credentials embedded.
func startCouchDBContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "couchdb:3.3",
		ExposedPorts: []string{"5984/tcp"},
		Env: map[string]string{
			"COUCHDB_USER":     "admin",
			"COUCHDB_PASSWORD": "secret",
		},
		WaitingFor: wait.ForHTTP("/").WithPort("5984/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5984")
	require.NoError(t, err)

	return container, fmt.Sprintf("http://admin:secret@%s:%s", host, port.Port())
}

func TestIntegration_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, baseURL := startCouchDBContainer(ctx, t)
	defer container.Terminate(ctx)

	store, err := ConnectURL(ctx, baseURL)
	require.NoError(t, err)
	defer store.Close()

	// Lazy create through the write gateway
	gw := cloudant.NewWriteGateway(store, "integration-orders")
	resp, err := gw.Insert(ctx, cloudant.Document{"name": "alice", "total": 10})
	require.NoError(t, err)

	id, _ := resp["id"].(string)
	rev, _ := resp["rev"].(string)
	require.NotEmpty(t, id)
	require.NotEmpty(t, rev)

	// Read it back by id
	rg := cloudant.NewReadGateway(store, "integration-orders")
	res, err := rg.Query(ctx, cloudant.QueryByID, cloudant.QueryParams{Payload: id})
	require.NoError(t, err)
	doc, ok := res.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", doc["name"])

	// Listing excludes nothing yet but returns our document
	res, err = rg.Query(ctx, cloudant.QueryAll, cloudant.QueryParams{})
	require.NoError(t, err)
	docs, ok := res.Payload.([]any)
	require.True(t, ok)
	assert.Len(t, docs, 1)

	// Delete with id and rev
	_, err = gw.Delete(ctx, cloudant.Document{"_id": id, "_rev": rev})
	require.NoError(t, err)

	// Now the lookup misses with a warning, not an error
	res, err = rg.Query(ctx, cloudant.QueryByID, cloudant.QueryParams{Payload: id})
	require.NoError(t, err)
	assert.Nil(t, res.Payload)
	assert.NotEmpty(t, res.Warning)
}

func TestIntegration_MissingDatabaseIsNotFound(t *testing.T) {
	ctx := context.Background()

	container, baseURL := startCouchDBContainer(ctx, t)
	defer container.Terminate(ctx)

	store, err := ConnectURL(ctx, baseURL)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, "no-such-db", "no-such-doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)
}
