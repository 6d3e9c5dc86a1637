package preflight

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// ToolVersion reports the version banner of an external tool.
type ToolVersion struct {
	Command string
	Version string
	Found   bool
}

// ProbeFFmpegVersion runs "<binary> -version" and extracts the version token
// from the first banner line ("ffmpeg version 6.1.1 Copyright ...").
func ProbeFFmpegVersion(ctx context.Context, binary string) ToolVersion {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	probe := ToolVersion{Command: binary}
	if _, err := exec.LookPath(binary); err != nil {
		return probe
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-version").Output()
	if err != nil {
		return probe
	}
	probe.Found = true
	probe.Version = parseVersionBanner(string(output))
	return probe
}

func parseVersionBanner(output string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "unknown"
}

// Detail renders a display-friendly summary for status output.
func (v ToolVersion) Detail() string {
	if !v.Found {
		return "not found"
	}
	return v.Version
}
