package config

import "runtime"

const (
	defaultDataDir              = "~/.local/share/voicematch"
	defaultAPIBind              = "0.0.0.0:8000"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultSampleRate           = 16000
	defaultMaxUploadMB          = 25
	defaultConversionTimeout    = 60
	defaultMinDurationSeconds   = 0.5
	defaultUploadExtension      = ".webm"
	defaultEmbeddingBackend     = BackendBuiltin
	defaultEmbeddingCommand     = "uvx"
	defaultFrameMs              = 25
	defaultHopMs                = 10
	defaultMelBands             = 40
	defaultCoefficients         = 20
	defaultTargetDBFS           = -30
	defaultSameSpeakerThreshold = 0.75
	defaultScorePrecision       = 4
	defaultHistoryRetentionDays = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 14
)

// Embedding backends.
const (
	BackendBuiltin = "builtin"
	BackendCommand = "command"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Audio: Audio{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			SampleRate:         defaultSampleRate,
			MaxUploadMB:        defaultMaxUploadMB,
			ConversionTimeout:  defaultConversionTimeout,
			MinDurationSeconds: defaultMinDurationSeconds,
			DefaultExtension:   defaultUploadExtension,
		},
		Embedding: Embedding{
			Backend:      defaultEmbeddingBackend,
			Command:      defaultEmbeddingCommand,
			FrameMs:      defaultFrameMs,
			HopMs:        defaultHopMs,
			MelBands:     defaultMelBands,
			Coefficients: defaultCoefficients,
			TrimSilence:  true,
			TargetDBFS:   defaultTargetDBFS,
		},
		Matching: Matching{
			SameSpeakerThreshold: defaultSameSpeakerThreshold,
			ScorePrecision:       defaultScorePrecision,
			MaxConcurrent:        runtime.NumCPU(),
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
