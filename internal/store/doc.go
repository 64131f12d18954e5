// Package store keeps a SQLite-backed history of executed queries.
//
// Every query run through a session is recorded once, whether it succeeded
// or failed: the cube, the request fingerprint, the scenario, the compiled
// MDX, the outcome and how long it took. The history answers "what did we
// send the engine" after the fact and groups repeats of one request by
// fingerprint.
//
// # Ordering
//
// Listings are newest first: ORDER BY created_at DESC, id DESC COLLATE
// BINARY. Ids are UUIDv7 in production, so the id tiebreak agrees with
// creation order.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - one open connection (SQLite has a single writer)
//
// The schema is embedded (schema.sql) and upgraded in place through
// PRAGMA user_version.
package store
