package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Noaman7/BluemixPOC/cloudant"
	"github.com/Noaman7/BluemixPOC/errors"
	"github.com/Noaman7/BluemixPOC/natsclient"
)

// bucketName is the KV bucket holding named connection records.
const bucketName = "bluemixpoc_credentials"

// Record is a stored named connection.
type Record struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Profile   cloudant.ConnectionProfile `json:"profile"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Store persists connection records in NATS KV and serves profile lookups.
type Store struct {
	bucket  jetstream.KeyValue
	kvStore *natsclient.KVStore
}

// compile-time check: the store backs the resolver's named-connection source
var _ cloudant.ProfileSource = (*Store)(nil)

// NewStore creates the credential store, provisioning the KV bucket when it
// does not exist yet.
func NewStore(natsClient *natsclient.Client) (*Store, error) {
	if natsClient == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "credentials", "NewStore", "nats client cannot be nil")
	}

	ctx := context.Background()
	bucket, err := natsClient.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: "Named Cloudant connection profiles",
		History:     5,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "credentials", "NewStore", "create KV bucket")
	}

	return &Store{
		bucket:  bucket,
		kvStore: natsClient.NewKVStore(bucket),
	}, nil
}

// Register stores a new named connection. Names are unique; registering an
// existing name fails.
func (s *Store) Register(ctx context.Context, name string, profile cloudant.ConnectionProfile) (*Record, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "credentials", "Register", "connection name cannot be empty")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	record := &Record{
		ID:        uuid.New().String(),
		Name:      name,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.WrapFatal(err, "credentials", "Register", "marshal record")
	}

	if _, err := s.kvStore.Create(ctx, name, data); err != nil {
		if natsclient.IsKVConflictError(err) {
			return nil, errors.WrapInvalid(err, "credentials", "Register",
				fmt.Sprintf("connection %q already exists", name))
		}
		return nil, errors.WrapTransient(err, "credentials", "Register", "create in KV")
	}

	return record, nil
}

// Update replaces the profile of an existing named connection.
func (s *Store) Update(ctx context.Context, name string, profile cloudant.ConnectionProfile) (*Record, error) {
	record, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	record.Profile = profile
	record.UpdatedAt = time.Now()

	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.WrapFatal(err, "credentials", "Update", "marshal record")
	}

	if _, err := s.kvStore.Put(ctx, name, data); err != nil {
		return nil, errors.WrapTransient(err, "credentials", "Update", "put to KV")
	}

	return record, nil
}

// Get retrieves a named connection record.
func (s *Store) Get(ctx context.Context, name string) (*Record, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "credentials", "Get", "connection name cannot be empty")
	}

	entry, err := s.kvStore.Get(ctx, name)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, errors.Wrap(errors.ErrKeyNotFound, "credentials", "Get",
				fmt.Sprintf("no connection named %q", name))
		}
		return nil, errors.WrapTransient(err, "credentials", "Get", "get from KV")
	}

	var record Record
	if err := json.Unmarshal(entry.Value, &record); err != nil {
		return nil, errors.WrapFatal(err, "credentials", "Get", "unmarshal record")
	}

	return &record, nil
}

// Remove deletes a named connection.
func (s *Store) Remove(ctx context.Context, name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "credentials", "Remove", "connection name cannot be empty")
	}

	if err := s.kvStore.Delete(ctx, name); err != nil {
		return errors.WrapTransient(err, "credentials", "Remove", "delete from KV")
	}
	return nil
}

// List retrieves every stored connection record.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return []*Record{}, nil
		}
		return nil, errors.WrapTransient(err, "credentials", "List", "list KV keys")
	}

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		record, err := s.Get(ctx, key)
		if err != nil {
			return nil, errors.WrapTransient(err, "credentials", "List",
				fmt.Sprintf("get connection %s", key))
		}
		records = append(records, record)
	}

	return records, nil
}

// Profile implements cloudant.ProfileSource for node startup resolution.
func (s *Store) Profile(name string) (cloudant.ConnectionProfile, error) {
	record, err := s.Get(context.Background(), name)
	if err != nil {
		return cloudant.ConnectionProfile{}, err
	}
	return record.Profile, nil
}
