package cloudant

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Noaman7/BluemixPOC/errors"
)

// BoundServices holds platform-bound service descriptors keyed by service
// instance name, in the Cloud Foundry VCAP_SERVICES shape.
type BoundServices map[string]ServiceDescriptor

// ServiceDescriptor is one bound service instance's credential block.
type ServiceDescriptor struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url,omitempty"`
}

// vcapEntry matches one instance inside a VCAP_SERVICES service list.
type vcapEntry struct {
	Name        string            `json:"name"`
	Credentials ServiceDescriptor `json:"credentials"`
}

// ParseBoundServices decodes a VCAP_SERVICES JSON document into a flat
// name-to-descriptor map. The outer keys (service labels) are ignored; the
// instance name is what nodes reference.
func ParseBoundServices(data []byte) (BoundServices, error) {
	if len(data) == 0 {
		return BoundServices{}, nil
	}

	var raw map[string][]vcapEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapInvalid(err, "BoundServices", "Parse", "decoding service descriptors")
	}

	services := BoundServices{}
	for _, entries := range raw {
		for _, entry := range entries {
			if entry.Name == "" {
				continue
			}
			services[entry.Name] = entry.Credentials
		}
	}
	return services, nil
}

// BoundServicesFromEnv reads bound services from the VCAP_SERVICES
// environment variable. An unset variable yields an empty map, not an error.
func BoundServicesFromEnv() (BoundServices, error) {
	return ParseBoundServices([]byte(os.Getenv("VCAP_SERVICES")))
}

// Profile resolves the named bound service into a connection profile. The
// account is the subdomain portion of the descriptor's host, the substring
// before the first dot.
func (s BoundServices) Profile(name string) (ConnectionProfile, error) {
	desc, ok := s[name]
	if !ok {
		return ConnectionProfile{}, errors.WrapFatal(errors.ErrNoCredentials, "BoundServices", "Profile",
			fmt.Sprintf("no bound service named %q", name))
	}

	account := desc.Host
	if i := strings.Index(account, "."); i >= 0 {
		account = account[:i]
	}

	return ConnectionProfile{
		Account:  account,
		Username: desc.Username,
		Password: desc.Password,
	}, nil
}
