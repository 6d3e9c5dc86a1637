package deps

import "voicematch/internal/config"

// Requirements lists the external binaries the configuration depends on.
// ffprobe is optional: without it uploads skip stream inspection.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Converts uploads to 16-bit mono WAV",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Rejects uploads without an audio stream",
			Optional:    true,
		},
	}
	if cfg.Embedding.Backend == config.BackendCommand {
		reqs = append(reqs, Requirement{
			Name:        "Embedding command",
			Command:     cfg.Embedding.Command,
			Description: "Runs the external speaker encoder",
		})
	}
	return reqs
}
