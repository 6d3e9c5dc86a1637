package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voicematch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Probing is disabled by pointing ffprobe at a missing binary; use
// WithFFprobeOutput to enable it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.WorkDir = filepath.Join(base, "data", "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Audio.FFprobeBinary = filepath.Join(base, "bin", "missing-ffprobe")
	cfgVal.Matching.MaxConcurrent = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAPIToken enables bearer auth on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithThreshold overrides the same-speaker threshold.
func WithThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.SameSpeakerThreshold = threshold
	}
}

// WithHistoryDisabled turns off history persistence.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithPassthroughFFmpeg installs an ffmpeg stand-in that copies its -i input
// to the output path. Tests feed it WAV files directly. Like ffmpeg, it
// refuses to overwrite its own input.
func WithPassthroughFFmpeg() ConfigOption {
	return func(b *configBuilder) {
		script := `#!/bin/sh
src=""
prev=""
dst=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then src="$arg"; fi
  prev="$arg"
  dst="$arg"
done
if [ "$src" = "$dst" ]; then
  echo "Output #0 same as Input #0 - exiting" >&2
  exit 1
fi
cp "$src" "$dst"
`
		b.cfg.Audio.FFmpegBinary = writeScript(b.t, b.baseDir, "ffmpeg", script)
	}
}

// WithFailingFFmpeg installs an ffmpeg stand-in that prints stderr and exits 1.
func WithFailingFFmpeg(stderr string) ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\necho '" + stderr + "' >&2\nexit 1\n"
		b.cfg.Audio.FFmpegBinary = writeScript(b.t, b.baseDir, "ffmpeg", script)
	}
}

// WithFFprobeOutput installs an ffprobe stand-in that prints the given JSON.
func WithFFprobeOutput(payload string) ConfigOption {
	return func(b *configBuilder) {
		data := filepath.Join(b.baseDir, "bin", "ffprobe.json")
		if err := os.MkdirAll(filepath.Dir(data), 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		if err := os.WriteFile(data, []byte(payload), 0o644); err != nil {
			b.t.Fatalf("write ffprobe payload: %v", err)
		}
		b.cfg.Audio.FFprobeBinary = writeScript(b.t, b.baseDir, "ffprobe", "#!/bin/sh\ncat '"+data+"'\n")
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			writeScriptIn(b.t, binDir, name, "#!/bin/sh\nexit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.cfg.Audio.FFmpegBinary = "ffmpeg"
		b.cfg.Audio.FFprobeBinary = "ffprobe"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

func writeScript(t testing.TB, base, name, body string) string {
	return writeScriptIn(t, filepath.Join(base, "bin"), name, body)
}

func writeScriptIn(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
