package compare

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"voicematch/internal/fileutil"
	"voicematch/internal/logging"
	"voicematch/internal/media/ffprobe"
	"voicematch/internal/media/wav"
	"voicematch/internal/services"
	"voicematch/internal/textutil"
	"voicematch/internal/voiceprint"
)

type processedInput struct {
	summary   InputSummary
	embedding voiceprint.Embedding
}

// process takes one upload from raw bytes to an embedding. label names the
// form field ("file1", "file2") in client-facing errors.
func (s *Service) process(ctx context.Context, dir, label string, input Input) (processedInput, error) {
	out := processedInput{summary: InputSummary{Name: input.Name}}
	logger := logging.WithContext(ctx, s.logger).With(logging.String("input", label))

	if input.Reader == nil {
		return out, services.Wrap(services.ErrValidation, "stage", label, "Missing upload "+label, nil)
	}
	limit := s.cfg.MaxUploadBytes()
	if input.Size > limit {
		return out, tooLarge(label, s.cfg.Audio.MaxUploadMB)
	}

	// The staged upload keeps its own extension for ffmpeg's demuxer probe,
	// so it must never share a name with the converted label+".wav".
	ext := textutil.UploadExtension(input.Name, s.cfg.Audio.DefaultExtension)
	written, err := fileutil.WriteLimited(filepath.Join(dir, label+"-upload"+ext), input.Reader, limit)
	if err != nil {
		if errors.Is(err, fileutil.ErrLimitExceeded) {
			return out, tooLarge(label, s.cfg.Audio.MaxUploadMB)
		}
		return out, services.Wrap(services.ErrTransient, "stage", label, "Could not read upload "+label, err)
	}
	out.summary.Bytes = written.Bytes
	if written.Bytes == 0 {
		return out, services.Wrap(services.ErrValidation, "stage", label, "Upload "+label+" is empty", nil)
	}
	logger.Debug("upload staged",
		logging.String("upload_path", written.Path),
		logging.Bytes("upload", written.Bytes),
		logging.String("sha256", written.SHA256),
	)

	if err := s.probe(services.WithStage(ctx, "probe"), label, written.Path); err != nil {
		return out, err
	}

	wavPath := filepath.Join(dir, label+".wav")
	if err := s.converter.ToWAV(services.WithStage(ctx, "convert"), written.Path, wavPath); err != nil {
		return out, err
	}
	clip, err := wav.Decode(wavPath)
	if err != nil {
		return out, services.Wrap(services.ErrValidation, "decode", label, "Could not decode converted audio", err)
	}
	out.summary.DurationSeconds = clip.Seconds()
	if minimum := s.cfg.Audio.MinDurationSeconds; minimum > 0 && clip.Seconds() < minimum {
		return out, services.Wrap(services.ErrValidation, "decode", label,
			fmt.Sprintf("Recording %s is too short (%.2fs, need at least %.2fs)", label, clip.Seconds(), minimum), nil)
	}

	embedding, err := s.embedder.Embed(services.WithStage(ctx, "embed"), voiceprint.Sample{Path: wavPath, Clip: clip})
	if err != nil {
		return out, err
	}
	out.embedding = embedding
	logger.Debug("input embedded",
		logging.Float64("duration_seconds", out.summary.DurationSeconds),
		logging.Int("dimensions", len(embedding)),
	)
	return out, nil
}

// probe rejects uploads without an audio stream. It is skipped when ffprobe
// is not installed; conversion then surfaces unreadable input instead.
func (s *Service) probe(ctx context.Context, label, path string) error {
	binary, err := exec.LookPath(s.cfg.Audio.FFprobeBinary)
	if err != nil {
		return nil
	}
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTransient, "probe", label, "Audio probe interrupted", ctx.Err())
		}
		return services.Wrap(services.ErrValidation, "probe", label, "Upload "+label+" is not a readable audio file", err)
	}
	if result.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrValidation, "probe", label, "Upload "+label+" has no audio stream", nil)
	}
	return nil
}

func tooLarge(label string, limitMB int) error {
	return services.Wrap(services.ErrTooLarge, "stage", label,
		fmt.Sprintf("Upload %s exceeds the %d MB limit", label, limitMB), nil)
}
