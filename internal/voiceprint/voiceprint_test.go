package voiceprint

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicematch/internal/config"
	"voicematch/internal/media/wav"
	"voicematch/internal/services"
)

const testRate = 16000

// harmonic synthesizes a buzzy vowel-like tone: f0 plus decaying harmonics
// with a fixed spectral tilt.
func harmonic(f0, seconds float64, tilt float64) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / testRate
		var v float64
		for h := 1; h <= 12; h++ {
			v += math.Pow(tilt, float64(h-1)) * math.Sin(2*math.Pi*f0*float64(h)*t)
		}
		out[i] = 0.2 * v
	}
	return out
}

func noise(seconds float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, int(seconds*testRate))
	for i := range out {
		out[i] = 0.1 * rng.NormFloat64()
	}
	return out
}

func defaultBuiltin() *BuiltinEmbedder {
	cfg := config.Default()
	return NewBuiltin(OptionsFromConfig(&cfg))
}

func embed(t *testing.T, e Embedder, samples []float64) Embedding {
	t.Helper()
	vec, err := e.Embed(context.Background(), Sample{Clip: wav.Clip{SampleRate: testRate, Samples: samples}})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	return vec
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Embedding
		want float64
	}{
		{"identical", Embedding{1, 2, 3}, Embedding{1, 2, 3}, 1},
		{"orthogonal", Embedding{1, 0}, Embedding{0, 1}, 0},
		{"opposite", Embedding{1, 1}, Embedding{-1, -1}, -1},
		{"mismatched", Embedding{1, 2}, Embedding{1, 2, 3}, 0},
		{"zero", Embedding{0, 0}, Embedding{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundAndThreshold(t *testing.T) {
	if got := Round(0.812345, 4); got != 0.8123 {
		t.Fatalf("Round = %v", got)
	}
	if got := Round(0.99996, 4); got != 1 {
		t.Fatalf("Round = %v", got)
	}
	if SameSpeaker(0.75, 0.75) {
		t.Fatal("threshold must be exceeded strictly")
	}
	if !SameSpeaker(0.7501, 0.75) {
		t.Fatal("expected same speaker above threshold")
	}
}

func TestNormalizeVolumeIncreaseOnly(t *testing.T) {
	quiet := []float64{0.001, -0.001, 0.001, -0.001}
	louder := NormalizeVolume(quiet, -30)
	if math.Abs(louder[0]) <= 0.001 {
		t.Fatalf("expected quiet signal to be amplified, got %v", louder[0])
	}
	if quiet[0] != 0.001 {
		t.Fatal("input must not be modified")
	}
	loud := []float64{0.9, -0.9}
	if got := NormalizeVolume(loud, -30); got[0] != 0.9 {
		t.Fatalf("expected loud signal unchanged, got %v", got[0])
	}
	if got := NormalizeVolume([]float64{0, 0}, -30); got[0] != 0 {
		t.Fatal("expected silence unchanged")
	}
}

func TestTrimSilenceRemovesPadding(t *testing.T) {
	silence := make([]float64, testRate/2)
	tone := harmonic(150, 1, 0.6)
	signal := append(append(append([]float64{}, silence...), tone...), silence...)

	trimmed := TrimSilence(signal, testRate)
	seconds := float64(len(trimmed)) / testRate
	if seconds < 1.0 || seconds > 1.7 {
		t.Fatalf("expected roughly the voiced second to remain, got %.3fs of %.3fs", seconds, float64(len(signal))/testRate)
	}
}

func TestTrimSilenceKeepsAllSilentInput(t *testing.T) {
	signal := make([]float64, testRate)
	if got := TrimSilence(signal, testRate); len(got) != len(signal) {
		t.Fatalf("expected untouched signal, got %d samples", len(got))
	}
}

func TestFeaturesShape(t *testing.T) {
	opts := FeatureOptions{FrameMs: 25, HopMs: 10, MelBands: 40, Coefficients: 20}
	frames := Features(harmonic(200, 1, 0.5), testRate, opts)
	if len(frames) != 98 {
		t.Fatalf("expected 98 frames, got %d", len(frames))
	}
	for _, frame := range frames {
		if len(frame) != 20 {
			t.Fatalf("expected 20 coefficients, got %d", len(frame))
		}
		for _, v := range frame {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite coefficient %v", v)
			}
		}
	}
	if Features(make([]float64, 100), testRate, opts) != nil {
		t.Fatal("expected no frames for a sub-frame signal")
	}
}

func TestDCTOfConstant(t *testing.T) {
	out := dct2([]float64{2, 2, 2, 2}, 3)
	if math.Abs(out[0]-4) > 1e-12 || math.Abs(out[1]) > 1e-12 || math.Abs(out[2]) > 1e-12 {
		t.Fatalf("unexpected DCT %v", out)
	}
}

func TestHammingEndpoints(t *testing.T) {
	w := hamming(400)
	if math.Abs(w[0]-0.08) > 1e-12 || math.Abs(w[399]-0.08) > 1e-12 {
		t.Fatalf("unexpected endpoints %v %v", w[0], w[399])
	}
}

func TestBuiltinEmbeddingIsNormalized(t *testing.T) {
	e := defaultBuiltin()
	vec := embed(t, e, harmonic(140, 1.5, 0.6))
	if len(vec) != e.Dimensions() {
		t.Fatalf("expected %d dims, got %d", e.Dimensions(), len(vec))
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("expected unit norm, got %v", norm)
	}
}

func TestBuiltinSeparatesDifferentSources(t *testing.T) {
	e := defaultBuiltin()
	voice := harmonic(140, 3, 0.6)
	first := embed(t, e, voice[:testRate*3/2])
	second := embed(t, e, voice[testRate*3/2:])
	other := embed(t, e, noise(1.5, 7))

	same := CosineSimilarity(first, second)
	different := CosineSimilarity(first, other)
	if same < 0.99 {
		t.Fatalf("expected near-identical embeddings for one source, got %v", same)
	}
	if different >= same {
		t.Fatalf("expected different sources to score lower: same=%v different=%v", same, different)
	}
}

func TestBuiltinLevelInvariant(t *testing.T) {
	e := defaultBuiltin()
	voice := harmonic(180, 1.5, 0.5)
	quiet := make([]float64, len(voice))
	for i, v := range voice {
		quiet[i] = v * 0.05
	}
	sim := CosineSimilarity(embed(t, e, voice), embed(t, e, quiet))
	if sim < 0.99 {
		t.Fatalf("expected gain changes to barely move the embedding, got %v", sim)
	}
}

func TestBuiltinRejectsShortClip(t *testing.T) {
	e := defaultBuiltin()
	_, err := e.Embed(context.Background(), Sample{Clip: wav.Clip{SampleRate: testRate, Samples: harmonic(150, 0.1, 0.6)}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuiltinHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := defaultBuiltin().Embed(ctx, Sample{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCommandEmbedderParsesStdout(t *testing.T) {
	dir := t.TempDir()
	stub := writeScript(t, dir, "encoder", `echo '{"embedding":[3,4]}'`+"\n")
	e := NewCommand(stub, PreprocessOptions{})

	vec, err := e.Embed(context.Background(), Sample{Path: filepath.Join(dir, "first.wav")})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || math.Abs(vec[0]-0.6) > 1e-12 || math.Abs(vec[1]-0.8) > 1e-12 {
		t.Fatalf("unexpected embedding %v", vec)
	}
}

func TestCommandEmbedderReportsJSONError(t *testing.T) {
	dir := t.TempDir()
	stub := writeScript(t, dir, "encoder", `echo '{"error":"recording contains no speech"}' >&2`+"\nexit 1\n")
	_, err := NewCommand(stub, PreprocessOptions{}).Embed(context.Background(), Sample{Path: filepath.Join(dir, "a.wav")})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if msg := services.Message(err); msg != "Speaker embedding failed: recording contains no speech" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestCommandEmbedderSummarizesTraceback(t *testing.T) {
	dir := t.TempDir()
	body := "echo 'Traceback (most recent call last):' >&2\necho '  File \"x.py\", line 1' >&2\necho 'ValueError: bad input' >&2\necho 'done' >&2\nexit 1\n"
	stub := writeScript(t, dir, "encoder", body)
	_, err := NewCommand(stub, PreprocessOptions{}).Embed(context.Background(), Sample{Path: filepath.Join(dir, "a.wav")})
	if err == nil || !strings.Contains(err.Error(), "ValueError: bad input") {
		t.Fatalf("expected exception line in error, got %v", err)
	}
}

func TestCommandEmbedderRunsBundledScriptThroughUVX(t *testing.T) {
	dir := t.TempDir()
	body := `for a; do
  case "$a" in
    *resemblyzer_embed.py) grep -q VoiceEncoder "$a" || exit 3 ;;
  esac
done
echo '{"embedding":[1,0]}'
`
	stub := writeScript(t, dir, "uvx", body)
	e := NewCommand(stub, PreprocessOptions{})
	vec, err := e.Embed(context.Background(), Sample{Path: filepath.Join(dir, "clip.wav")})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vec[0] != 1 {
		t.Fatalf("unexpected embedding %v", vec)
	}
	if _, err := os.Stat(filepath.Join(dir, scriptName)); !os.IsNotExist(err) {
		t.Fatalf("expected script cleanup, stat err=%v", err)
	}
}

func TestCommandEmbedderWritesPreparedSample(t *testing.T) {
	dir := t.TempDir()
	body := `test -f "$1" || exit 4
case "$1" in *-prepared.wav) ;; *) exit 5 ;; esac
echo '{"embedding":[0.5,0.5]}'
`
	stub := writeScript(t, dir, "encoder", body)
	e := NewCommand(stub, PreprocessOptions{TargetDBFS: -30, TrimSilence: true})
	clip := wav.Clip{SampleRate: testRate, Samples: harmonic(150, 1, 0.6)}
	if _, err := e.Embed(context.Background(), Sample{Path: filepath.Join(dir, "clip.wav"), Clip: clip}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip-prepared.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected prepared sample cleanup, stat err=%v", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	e, err := New(&cfg)
	if err != nil || e.Name() != config.BackendBuiltin {
		t.Fatalf("expected builtin backend, got %v %v", e, err)
	}
	cfg.Embedding.Backend = config.BackendCommand
	e, err = New(&cfg)
	if err != nil || e.Name() != config.BackendCommand {
		t.Fatalf("expected command backend, got %v %v", e, err)
	}
	cfg.Embedding.Backend = "neural"
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
