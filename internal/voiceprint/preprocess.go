package voiceprint

import (
	"math"
	"slices"

	"voicematch/internal/config"
)

const (
	vadWindowMs        = 30
	vadMovingAverage   = 8
	vadMaxSilence      = 6
	vadMarginDB        = 12.0
	vadSilenceFloorDB  = -60.0
	vadFloorPercentile = 0.10
)

// PreprocessOptions controls volume normalization and silence trimming.
type PreprocessOptions struct {
	TargetDBFS  float64
	TrimSilence bool
}

// PreprocessOptionsFromConfig extracts preprocessing settings from cfg.
func PreprocessOptionsFromConfig(cfg *config.Config) PreprocessOptions {
	return PreprocessOptions{
		TargetDBFS:  cfg.Embedding.TargetDBFS,
		TrimSilence: cfg.Embedding.TrimSilence,
	}
}

// Preprocess returns a normalized copy of samples with long silences removed.
func Preprocess(samples []float64, sampleRate int, opts PreprocessOptions) []float64 {
	out := NormalizeVolume(samples, opts.TargetDBFS)
	if !opts.TrimSilence {
		return out
	}
	return TrimSilence(out, sampleRate)
}

// NormalizeVolume scales samples toward targetDBFS. Recordings already louder
// than the target are returned unchanged.
func NormalizeVolume(samples []float64, targetDBFS float64) []float64 {
	out := slices.Clone(samples)
	if len(out) == 0 {
		return out
	}
	var sumSquares float64
	for _, s := range out {
		sumSquares += s * s
	}
	if sumSquares == 0 {
		return out
	}
	current := 10 * math.Log10(sumSquares/float64(len(out)))
	change := targetDBFS - current
	if change <= 0 {
		return out
	}
	gain := math.Pow(10, change/20)
	for i := range out {
		out[i] *= gain
	}
	return out
}

// TrimSilence drops windows classified as silence by an energy detector.
// Voiced flags are smoothed with a moving average and dilated so pauses
// shorter than vadMaxSilence windows survive. When no window is voiced the
// input is returned as-is.
func TrimSilence(samples []float64, sampleRate int) []float64 {
	window := sampleRate * vadWindowMs / 1000
	if window <= 0 || len(samples) < window {
		return samples
	}
	count := len(samples) / window
	levels := make([]float64, count)
	for i := range count {
		levels[i] = windowDB(samples[i*window : (i+1)*window])
	}

	threshold := voicedThreshold(levels)
	flags := make([]bool, count)
	for i, level := range levels {
		flags[i] = level > vadSilenceFloorDB && level >= threshold
	}
	mask := dilate(smooth(flags, vadMovingAverage), vadMaxSilence+1)

	out := make([]float64, 0, len(samples))
	for i, keep := range mask {
		if keep {
			out = append(out, samples[i*window:(i+1)*window]...)
		}
	}
	if len(out) == 0 {
		return samples
	}
	return out
}

func windowDB(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return 10 * math.Log10(sum/float64(len(frame))+1e-20)
}

// voicedThreshold places the cut vadMarginDB above the noise floor (a low
// percentile of window levels) but never above the loudest windows.
func voicedThreshold(levels []float64) float64 {
	sorted := slices.Clone(levels)
	slices.Sort(sorted)
	floor := sorted[int(float64(len(sorted)-1)*vadFloorPercentile)]
	peak := sorted[len(sorted)-1]
	return math.Min(floor+vadMarginDB, peak-3)
}

func smooth(flags []bool, width int) []bool {
	out := make([]bool, len(flags))
	half := width / 2
	for i := range flags {
		voiced := 0
		for j := i - half; j < i-half+width; j++ {
			if j >= 0 && j < len(flags) && flags[j] {
				voiced++
			}
		}
		out[i] = float64(voiced)/float64(width) >= 0.5
	}
	return out
}

func dilate(flags []bool, radius int) []bool {
	out := make([]bool, len(flags))
	for i, set := range flags {
		if !set {
			continue
		}
		for j := max(0, i-radius); j <= min(len(flags)-1, i+radius); j++ {
			out[j] = true
		}
	}
	return out
}
