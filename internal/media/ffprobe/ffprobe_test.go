package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const webmProbe = `{
  "streams": [
    {"index": 0, "codec_name": "opus", "codec_type": "audio", "sample_rate": "48000", "channels": 1, "channel_layout": "mono"}
  ],
  "format": {"filename": "upload.webm", "nb_streams": 1, "format_name": "matroska,webm", "duration": "N/A", "size": "48213"}
}`

func TestParseBrowserRecording(t *testing.T) {
	result, err := Parse([]byte(webmProbe))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	stream, ok := result.PrimaryAudio()
	if !ok || stream.CodecName != "opus" || stream.SampleRateHz() != 48000 {
		t.Fatalf("unexpected primary audio: %#v", stream)
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected unknown duration, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 48213 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "99"},
			{CodecType: "audio", Duration: "3.5"},
			{CodecType: "audio", Duration: "4.25"},
		},
		Format: Format{Duration: "bad"},
	}
	if result.DurationSeconds() != 4.25 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	result.Format.Duration = "12.5"
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("expected container duration to win, got %v", result.DurationSeconds())
	}
}

func TestNoAudioStreams(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video"}}}
	if result.AudioStreamCount() != 0 {
		t.Fatal("expected no audio streams")
	}
	if _, ok := result.PrimaryAudio(); ok {
		t.Fatal("expected no primary audio")
	}
}

func TestInspectUsesStubBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n" + webmProbe + "\nJSON\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), stub, filepath.Join(dir, "upload.webm"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.FormatName != "matroska,webm" {
		t.Fatalf("unexpected format: %q", result.Format.FormatName)
	}
}

func TestInspectReportsStderr(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\necho 'Invalid data found when processing input' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err := Inspect(context.Background(), stub, filepath.Join(dir, "junk.bin"))
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
