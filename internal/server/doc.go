// Package server hosts the voicematch HTTP API.
//
// A Server owns the single-instance lock, the listener, and an hourly
// maintenance loop that sweeps orphaned work directories and prunes history.
// Handlers are thin: they decode multipart uploads, hand them to the compare
// service, and render one of three response shapes (/compare,
// /compare_voices/ and /api/compare). Errors carry a services marker that
// selects the HTTP status.
package server
