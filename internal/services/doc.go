// Package services defines shared utilities consumed by the comparison pipeline
// and the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, comparison IDs, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into HTTP statuses and carry a client-safe message.
package services
