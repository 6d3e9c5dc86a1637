package voiceprint

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"voicematch/internal/config"
	"voicematch/internal/services"
)

// MinFrames is the fewest MFCC frames an embedding is computed from.
const MinFrames = 10

// liftering constant for sinusoidal cepstral weighting.
const lifter = 22.0

// Options configures the builtin embedder.
type Options struct {
	Preprocess PreprocessOptions
	Features   FeatureOptions
}

// OptionsFromConfig extracts builtin embedder settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Preprocess: PreprocessOptionsFromConfig(cfg),
		Features: FeatureOptions{
			FrameMs:      cfg.Embedding.FrameMs,
			HopMs:        cfg.Embedding.HopMs,
			MelBands:     cfg.Embedding.MelBands,
			Coefficients: cfg.Embedding.Coefficients,
		},
	}
}

// BuiltinEmbedder summarizes MFCC trajectories into a fixed-length vector:
// per-coefficient mean and standard deviation of c1..cN-1, plus the standard
// deviation of their first differences. c0 (frame energy) is excluded so the
// vector is insensitive to recording level.
type BuiltinEmbedder struct {
	opts Options
}

// NewBuiltin constructs a BuiltinEmbedder.
func NewBuiltin(opts Options) *BuiltinEmbedder {
	return &BuiltinEmbedder{opts: opts}
}

// Name implements Embedder.
func (e *BuiltinEmbedder) Name() string { return config.BackendBuiltin }

// Dimensions returns the embedding length.
func (e *BuiltinEmbedder) Dimensions() int {
	return 3 * (e.opts.Features.Coefficients - 1)
}

// Embed implements Embedder.
func (e *BuiltinEmbedder) Embed(ctx context.Context, sample Sample) (Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clip := sample.Clip
	samples := Preprocess(clip.Samples, clip.SampleRate, e.opts.Preprocess)
	frames := Features(samples, clip.SampleRate, e.opts.Features)
	if len(frames) < MinFrames {
		return nil, services.Wrap(services.ErrValidation, "embed", "builtin", "Not enough speech to build a voiceprint",
			fmt.Errorf("%d analysis frames, need %d", len(frames), MinFrames))
	}
	return e.summarize(frames), nil
}

func (e *BuiltinEmbedder) summarize(frames [][]float64) Embedding {
	dims := e.opts.Features.Coefficients - 1
	out := make([]float64, 0, 3*dims)
	means := make([]float64, dims)
	stds := make([]float64, dims)
	deltaStds := make([]float64, dims)

	track := make([]float64, len(frames))
	deltas := make([]float64, len(frames)-1)
	for d := range dims {
		for i, frame := range frames {
			track[i] = frame[d+1]
		}
		for i := 1; i < len(track); i++ {
			deltas[i-1] = track[i] - track[i-1]
		}
		weight := 1 + lifter/2*math.Sin(math.Pi*float64(d+1)/lifter)
		mean, std := stat.MeanStdDev(track, nil)
		means[d] = mean * weight
		stds[d] = std * weight
		deltaStds[d] = stat.StdDev(deltas, nil) * weight
	}
	out = append(out, means...)
	out = append(out, stds...)
	out = append(out, deltaStds...)
	return normalize(out)
}
