// Package preflight provides readiness checks for the filesystem paths and
// external tools voicematch depends on.
//
// These checks run in two contexts:
//   - The server calls RunAll at startup and refuses to serve when a required
//     directory is unusable.
//   - The CLI "voicematch status" command renders the same results alongside
//     the FFmpeg version probe.
package preflight
