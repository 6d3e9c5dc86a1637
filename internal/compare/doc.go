// Package compare runs a single speaker comparison end to end.
//
// A Service stages two uploads into a private scratch directory, converts each
// one to 16 kHz mono WAV with ffmpeg, embeds both with the configured
// voiceprint backend, and reports their cosine similarity. Both inputs are
// processed concurrently; the number of comparisons in flight is bounded by
// matching.max_concurrent. Every outcome, including failures, is appended to
// the history store when one is attached.
package compare
