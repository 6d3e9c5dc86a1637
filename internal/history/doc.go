// Package history persists comparison outcomes in a local SQLite database.
//
// The store is append-only from the request path: every comparison, successful
// or not, produces one Record. Operators read it back through the CLI and the
// /api/history endpoints, and the daemon prunes records past the configured
// retention window.
//
// The schema is embedded and versioned. Opening a database written by an
// incompatible build fails with ErrSchemaMismatch rather than migrating; the
// history is diagnostic data and can be cleared.
package history
