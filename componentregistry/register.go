// Package componentregistry provides component registration for the
// BluemixPOC document gateway.
package componentregistry

import (
	"errors"

	"github.com/Noaman7/BluemixPOC/component"
	pkgerrors "github.com/Noaman7/BluemixPOC/errors"
	cloudantinput "github.com/Noaman7/BluemixPOC/input/cloudant"
	cloudantoutput "github.com/Noaman7/BluemixPOC/output/cloudant"
)

// Register registers all gateway component factories with the provided
// registry:
//
//   - cloudant-out: document writes (insert, delete) driven by flow messages
//   - cloudant-in: document queries (by id, indexed search, full listing)
func Register(registry *component.Registry) error {
	// Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := cloudantoutput.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Cloudant output component registration")
	}

	if err := cloudantinput.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Cloudant input component registration")
	}

	return nil
}
