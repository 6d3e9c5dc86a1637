// Package convert turns arbitrary uploaded recordings into mono 16-bit PCM
// WAV files with ffmpeg.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"voicematch/internal/services"
)

const stderrLimit = 512

// Converter runs ffmpeg with a fixed output format.
type Converter struct {
	Binary     string
	SampleRate int
	Timeout    time.Duration
}

// Args returns the ffmpeg argument list used to convert src into dst.
func (c Converter) Args(src, dst string) []string {
	rate := c.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-c:a", "pcm_s16le",
		dst,
	}
}

// ToWAV converts src into a WAV file at dst. Failures are classified as
// ErrExternalTool (or ErrTimeout when the per-call timeout or the caller's
// deadline elapses) with the message "Audio conversion failed".
func (c Converter) ToWAV(ctx context.Context, src, dst string) error {
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	started := time.Now()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, c.Args(src, dst)...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(dst)
		detail := trimStderr(stderr.String())
		cause := err
		if detail != "" {
			cause = fmt.Errorf("%w: %s", err, detail)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "convert", "ffmpeg", "Audio conversion failed", fmt.Errorf("timed out after %s", time.Since(started).Round(time.Millisecond)))
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return services.Wrap(services.ErrTransient, "convert", "ffmpeg", "Audio conversion failed", ctx.Err())
		}
		return services.Wrap(services.ErrExternalTool, "convert", "ffmpeg", "Audio conversion failed", cause)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "convert", "ffmpeg", "Audio conversion failed", err)
	}
	if info.Size() <= 44 {
		return services.Wrap(services.ErrValidation, "convert", "ffmpeg", "Audio conversion failed", errors.New("no audio samples decoded"))
	}
	return nil
}

func trimStderr(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= stderrLimit {
		return value
	}
	cut := len(value) - stderrLimit
	for cut < len(value) && !utf8.RuneStart(value[cut]) {
		cut++
	}
	return value[cut:]
}
