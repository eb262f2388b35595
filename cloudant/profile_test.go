package cloudant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noaman7/BluemixPOC/errors"
)

type mapProfileSource map[string]ConnectionProfile

func (m mapProfileSource) Profile(name string) (ConnectionProfile, error) {
	p, ok := m[name]
	if !ok {
		return ConnectionProfile{}, errors.Wrap(errors.ErrKeyNotFound, "mapProfileSource", "Profile", name)
	}
	return p, nil
}

func TestResolver_NamedConnection(t *testing.T) {
	source := mapProfileSource{
		"main": {Account: "acct", Username: "u", Password: "p"},
	}
	resolver := NewResolver(source, nil)

	profile, err := resolver.Resolve(ResolverSettings{ConnectionName: "main"})
	require.NoError(t, err)
	assert.Equal(t, "acct", profile.Account)

	_, err = resolver.Resolve(ResolverSettings{ConnectionName: "missing"})
	assert.Error(t, err)
}

func TestResolver_BoundService(t *testing.T) {
	services := BoundServices{
		"my-cloudant": {
			Host:     "myacct.cloudant.com",
			Username: "svc-user",
			Password: "svc-pass",
		},
	}
	resolver := NewResolver(nil, services)

	profile, err := resolver.Resolve(ResolverSettings{ServiceName: "my-cloudant"})
	require.NoError(t, err)

	// Account is the host's subdomain, before the first dot
	assert.Equal(t, "myacct", profile.Account)
	assert.Equal(t, "svc-user", profile.Username)
	assert.Equal(t, "svc-pass", profile.Password)

	_, err = resolver.Resolve(ResolverSettings{ServiceName: "other"})
	assert.Error(t, err)
}

func TestResolver_NoSourceConfigured(t *testing.T) {
	resolver := NewResolver(nil, nil)

	_, err := resolver.Resolve(ResolverSettings{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoCredentials)
	assert.True(t, errors.IsFatal(err))
}

func TestParseBoundServices(t *testing.T) {
	raw := `{
		"cloudantNoSQLDB": [
			{
				"name": "orders-db",
				"credentials": {
					"host": "orders.cloudant.com",
					"username": "u",
					"password": "p"
				}
			}
		],
		"otherService": [
			{"name": "cache", "credentials": {"host": "cache.example.com"}}
		]
	}`

	services, err := ParseBoundServices([]byte(raw))
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "orders.cloudant.com", services["orders-db"].Host)

	// Empty input is an empty map, not an error
	services, err = ParseBoundServices(nil)
	require.NoError(t, err)
	assert.Empty(t, services)

	// Malformed input is invalid
	_, err = ParseBoundServices([]byte(`{`))
	assert.Error(t, err)
}

func TestConnectionProfile_URL(t *testing.T) {
	p := ConnectionProfile{Account: "acct", Username: "u", Password: "p"}
	assert.Equal(t, "https://u:p@acct.cloudant.com", p.URL())

	p = ConnectionProfile{Account: "db.example.com"}
	assert.Equal(t, "https://db.example.com", p.URL())
}
