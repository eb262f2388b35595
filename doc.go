// Package bluemixpoc provides a document gateway between NATS-based
// automation flows and Cloudant-style document databases (CouchDB, Cloudant).
//
// # Architecture
//
// Flows exchange JSON messages over NATS subjects. Gateway components sit on
// those subjects and translate messages into database operations:
//
//	┌─────────────────────────────────────┐
//	│         Flow Messages               │  flow.envelope.v1 in,
//	│   (NATS subjects, JSON payloads)    │  flow.result.v1 out
//	└─────────────────────────────────────┘
//	           ↓ consumed by
//	┌─────────────────────────────────────┐
//	│       Gateway Components            │  output/cloudant (writes)
//	│  (lifecycle-managed, discoverable)  │  input/cloudant (queries)
//	└─────────────────────────────────────┘
//	           ↓ operate through
//	┌─────────────────────────────────────┐
//	│        Document Gateways            │  sanitize, normalize,
//	│  (cloudant package, backend-free)   │  retry, result shaping
//	└─────────────────────────────────────┘
//	           ↓ backed by
//	┌─────────────────────────────────────┐
//	│        CouchDB / Cloudant           │  storage/couchstore
//	│      (kivik client, _search)        │  (kivik v4)
//	└─────────────────────────────────────┘
//
// The write path coerces arbitrary message payloads into documents, strips
// underscore-prefixed fields the backend would reject, and lazily creates
// missing databases. The read path serves by-id fetches, Lucene index
// searches, and full listings, normalizing paginated responses into plain
// document arrays.
//
// # Packages
//
// Gateway core:
//   - cloudant: connection profiles, name normalization, document
//     sanitization, write and read gateways
//   - storage/couchstore: kivik-backed Store implementation
//   - credentials: named connection profiles in NATS JetStream KV
//
// Components:
//   - output/cloudant: insert and delete driven by flow messages
//   - input/cloudant: queries triggered by flow messages
//   - componentregistry: factory registration
//
// Infrastructure:
//   - natsclient: NATS connection management with circuit breaker
//   - config: layered configuration loading and validation
//   - metric: Prometheus metrics
//   - errors: classified error handling
//   - message: flow message envelope and result types
//
// # Usage
//
// Basic setup:
//
//	// Create NATS client
//	natsClient, _ := natsclient.NewClient("nats://localhost:4222")
//	natsClient.Connect(ctx)
//
//	// Register gateway component factories
//	registry := component.NewRegistry()
//	componentregistry.Register(registry)
//
//	// Create components from configuration
//	instance, _ := registry.CreateComponent("orders-writer", componentConfig, deps)
//
// Credentials come from three places, in resolution order: a named
// connection in configuration or the credential store, or a bound service
// in the VCAP_SERVICES environment variable (Cloud Foundry service
// binding).
//
// # Binary
//
// Build and run the gateway:
//
//	go build -o bin/bluemixpoc ./cmd/bluemixpoc
//	./bin/bluemixpoc --config configs/example.json
package bluemixpoc
