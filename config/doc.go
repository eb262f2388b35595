// Package config provides layered configuration loading for the BluemixPOC
// gateway.
//
// Configuration is read from JSON or YAML files, merged layer by layer
// (later layers override earlier ones), then finished with environment
// variable overrides under the BLUEMIXPOC_ prefix. The merged result is
// validated before use.
//
// The Config structure covers platform identity, the NATS connection,
// the metrics endpoint, named Cloudant connections, and component instance
// configurations. Component-specific settings stay as raw JSON and are
// parsed by the component factories themselves.
//
// Usage:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.yaml")
//	loader.AddLayer("config/local.json")
//	loader.EnableValidation(true)
//	cfg, err := loader.Load()
package config
