// Package component provides the core component infrastructure for the
// BluemixPOC gateway, enabling dynamic component discovery, registration,
// lifecycle management, and instance creation.
//
// # Overview
//
// Components are self-describing units that bridge NATS message flows and
// external document stores. Two component types exist: inputs (query the
// store and publish results) and outputs (consume messages and write to the
// store). The Registry is the central component management system, handling
// both factory registration and instance management with thread-safe
// operations.
//
// # Component Registration Pattern
//
// BluemixPOC uses EXPLICIT registration rather than init() self-registration:
//
//  1. Each component package exports a Register(*Registry) error function
//  2. main.go explicitly calls Register() with a created Registry
//  3. Components are now available for instantiation
//
// Example component registration:
//
//	func Register(registry *component.Registry) error {
//		return registry.RegisterWithConfig(component.RegistrationConfig{
//			Name:        "cloudant",
//			Factory:     NewOutput,
//			Schema:      outputSchema,
//			Type:        "output",
//			Protocol:    "couchdb",
//			Domain:      "storage",
//			Description: "Cloudant output component for document writes",
//			Version:     "1.0.0",
//		})
//	}
//
// # Factory Pattern
//
// Component factories follow a consistent signature:
//
//	type Factory func(rawConfig json.RawMessage, deps Dependencies) (Discoverable, error)
//
// Factories receive raw JSON configuration and dependencies, parse and
// validate their own config, and return an initialized component. All I/O
// happens in the component's Start() method, never in the factory.
//
// # Discoverable Interface
//
// All components implement Discoverable:
//
//	type Discoverable interface {
//		Meta() Metadata             // Component metadata (name, type, version)
//		InputPorts() []Port         // Input port definitions
//		OutputPorts() []Port        // Output port definitions
//		ConfigSchema() ConfigSchema // Configuration schema for validation
//		Health() HealthStatus       // Current health status
//		DataFlow() FlowMetrics      // Data flow metrics (messages, bytes)
//	}
//
// Components that also implement LifecycleComponent participate in managed
// startup and shutdown via Initialize/Start/Stop.
package component
