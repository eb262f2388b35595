package cloudant

import (
	"fmt"
	"strings"

	"github.com/Noaman7/BluemixPOC/errors"
)

// ConnectionProfile holds resolved backend credentials. Immutable once
// resolved; owned by a single gateway node for its lifetime.
type ConnectionProfile struct {
	Account  string `json:"account"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// URL returns the backend base URL for the profile. Accounts that already
// look like a host are used as-is; bare account names get the managed
// service domain appended.
func (p ConnectionProfile) URL() string {
	host := p.Account
	if !strings.Contains(host, ".") {
		host += ".cloudant.com"
	}
	if p.Username != "" {
		return fmt.Sprintf("https://%s:%s@%s", p.Username, p.Password, host)
	}
	return "https://" + host
}

// Validate reports whether the profile carries enough to connect.
func (p ConnectionProfile) Validate() error {
	if p.Account == "" {
		return errors.WrapInvalid(errors.ErrNoCredentials, "ConnectionProfile", "Validate",
			"account is empty")
	}
	return nil
}

// ProfileSource resolves previously registered named connections. The
// credentials package provides the KV-backed implementation.
type ProfileSource interface {
	Profile(name string) (ConnectionProfile, error)
}

// ResolverSettings selects one of the two credential sources. Exactly one of
// ConnectionName (a registered named connection) or ServiceName (a bound
// service descriptor in the environment) must be set.
type ResolverSettings struct {
	ConnectionName string
	ServiceName    string
}

// Resolver derives a ConnectionProfile from node configuration.
type Resolver struct {
	source   ProfileSource
	services BoundServices
}

// NewResolver creates a resolver over a named-connection source and the
// platform's bound services. Either may be nil/empty when unused.
func NewResolver(source ProfileSource, services BoundServices) *Resolver {
	return &Resolver{source: source, services: services}
}

// Resolve produces the connection profile for the given settings. A
// configuration naming neither source is a startup error; no operations
// may proceed without a profile.
func (r *Resolver) Resolve(settings ResolverSettings) (ConnectionProfile, error) {
	switch {
	case settings.ConnectionName != "":
		if r.source == nil {
			return ConnectionProfile{}, errors.WrapFatal(errors.ErrNoCredentials, "Resolver", "Resolve",
				fmt.Sprintf("named connection %q requested but no profile source configured", settings.ConnectionName))
		}
		profile, err := r.source.Profile(settings.ConnectionName)
		if err != nil {
			return ConnectionProfile{}, errors.WrapFatal(err, "Resolver", "Resolve",
				fmt.Sprintf("lookup of named connection %q", settings.ConnectionName))
		}
		return profile, profile.Validate()

	case settings.ServiceName != "":
		profile, err := r.services.Profile(settings.ServiceName)
		if err != nil {
			return ConnectionProfile{}, errors.WrapFatal(err, "Resolver", "Resolve",
				fmt.Sprintf("lookup of bound service %q", settings.ServiceName))
		}
		return profile, profile.Validate()

	default:
		return ConnectionProfile{}, errors.WrapFatal(errors.ErrNoCredentials, "Resolver", "Resolve",
			"configuration names neither a connection nor a bound service")
	}
}
