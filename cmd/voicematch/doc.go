// Package main hosts the voicematch CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the HTTP server, performs one-off local
// comparisons, inspects and maintains the comparison history database, and
// scaffolds configuration. Heavy lifting lives in the internal packages; the
// commands here resolve configuration and render output.
package main
