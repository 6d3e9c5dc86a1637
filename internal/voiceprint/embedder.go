package voiceprint

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"voicematch/internal/config"
	"voicematch/internal/media/wav"
)

// Embedding is an L2-normalized speaker vector.
type Embedding []float64

// Sample is a converted recording: the WAV on disk and its decoded samples.
type Sample struct {
	Path string
	Clip wav.Clip
}

// Embedder produces speaker embeddings.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, sample Sample) (Embedding, error)
}

// New selects the embedding backend configured in cfg.
func New(cfg *config.Config) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("voiceprint: nil config")
	}
	switch cfg.Embedding.Backend {
	case config.BackendBuiltin:
		return NewBuiltin(OptionsFromConfig(cfg)), nil
	case config.BackendCommand:
		return NewCommand(cfg.Embedding.Command, PreprocessOptionsFromConfig(cfg)), nil
	default:
		return nil, fmt.Errorf("voiceprint: unknown backend %q", cfg.Embedding.Backend)
	}
}

// normalize scales v to unit length in place. Zero vectors are left unchanged.
func normalize(v []float64) Embedding {
	if norm := floats.Norm(v, 2); norm > 0 {
		floats.Scale(1/norm, v)
	}
	return v
}
