// Package api defines wire-format types and converters for the HTTP layer and
// the CLI. It translates compare results and history records into
// transport-friendly DTOs so handlers and table renderers do not couple to
// internal types.
//
// # Key Types
//
// CompareResponse and CompareVoicesResponse: the two legacy response shapes,
// {"similarity"} and {"similarity_score","same_speaker"}.
//
// ComparisonDetail: the full result served by /api/compare and the history
// endpoints.
//
// StatusResponse: server version, uptime, backend, threshold, dependency
// availability and history counts.
//
// DetailError and Error: the two error envelopes, {"detail"} and {"error"}.
//
// # Design Notes
//
// The legacy shapes keep their snake_case keys because existing browser
// clients read them. The /api payloads use camelCase like the rest of the
// JSON surface. Timestamps are RFC3339 with milliseconds.
package api
