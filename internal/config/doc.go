// Package config loads, normalizes, and validates voicematch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as PORT
// and VOICEMATCH_API_TOKEN. The Config type centralizes every knob the server
// and CLI need so data, work, and log directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
