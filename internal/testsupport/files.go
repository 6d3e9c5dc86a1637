package testsupport

import (
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"voicematch/internal/media/wav"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Voice synthesizes a harmonic signal with a fundamental at f0 Hz. Harmonic
// amplitudes decay with the given tilt so different tilts read as different
// timbres.
func Voice(f0, tilt, seconds float64, rate int) wav.Clip {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for h := 1; h <= 12; h++ {
		freq := f0 * float64(h)
		if freq >= float64(rate)/2 {
			break
		}
		amp := math.Pow(float64(h), -tilt)
		for i := range samples {
			samples[i] += amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		}
	}
	return scaleTo(samples, 0.5, rate)
}

// Noise returns seeded white noise.
func Noise(seed uint64, seconds float64, rate int) wav.Clip {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	samples := make([]float64, int(seconds*float64(rate)))
	for i := range samples {
		samples[i] = rng.Float64()*2 - 1
	}
	return scaleTo(samples, 0.5, rate)
}

// WriteWAV writes clip as a 16-bit mono WAV file and returns the path.
func WriteWAV(t testing.TB, path string, clip wav.Clip) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := wav.WriteFile(path, clip); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return path
}

// ReadFile returns the file contents or fails the test.
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func scaleTo(samples []float64, peak float64, rate int) wav.Clip {
	maxAbs := 0.0
	for _, v := range samples {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if maxAbs > 0 {
		for i := range samples {
			samples[i] *= peak / maxAbs
		}
	}
	return wav.Clip{SampleRate: rate, Samples: samples}
}
