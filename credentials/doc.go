// Package credentials persists named Cloudant connection profiles in a NATS
// JetStream KV bucket.
//
// Gateway nodes reference connections by name; the Store implements
// cloudant.ProfileSource so a resolver can look profiles up at node startup.
// Register, Get, List, and Remove cover the administrative credential CRUD
// the platform exposes.
//
// Records carry a generated ID and timestamps; the connection name is the KV
// key, so names are unique per platform.
package credentials
