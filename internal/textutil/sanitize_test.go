package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  recording.webm  ", "recording.webm"},
		{"../../etc/passwd", "-..-etc-passwd"},
		{"a:b*c?.wav", "a-b-c.wav"},
		{".hidden.ogg", "hidden.ogg"},
		{"voice\x00\n.mp3", "voice.mp3"},
		{"Café.m4a", "Café.m4a"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameTruncates(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("é", 200))
	if len(got) > maxFileNameLength {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameLength, len(got))
	}
}

func TestUploadExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"clip.WAV", ".wav"},
		{"blob", ".webm"},
		{"", ".webm"},
		{"weird.ext with space", ".webm"},
		{"audio.tooolongext", ".webm"},
		{"voice.mp3", ".mp3"},
	}
	for _, tt := range tests {
		if got := UploadExtension(tt.name, ".webm"); got != tt.want {
			t.Errorf("UploadExtension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
