// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Browser recordings (MediaRecorder WebM/Ogg) frequently omit a container
// duration; DurationSeconds falls back to the longest audio stream and
// reports 0 when neither is known.
package ffprobe
