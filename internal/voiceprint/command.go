package voiceprint

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"voicematch/internal/config"
	"voicematch/internal/media/wav"
	"voicematch/internal/services"
)

//go:embed resemblyzer_embed.py
var resemblyzerScript string

const scriptName = "resemblyzer_embed.py"

type commandOutput struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// CommandEmbedder delegates embedding to an external program.
//
// When Command is uvx the bundled resemblyzer script is written next to the
// sample and run with "uvx --with resemblyzer python". Any other command is
// invoked as "<command> <wav-path>". Either way the program prints
// {"embedding": [...]} on stdout, or {"error": "..."} on stderr with a
// non-zero exit status.
type CommandEmbedder struct {
	Command    string
	preprocess PreprocessOptions
}

// NewCommand constructs a CommandEmbedder.
func NewCommand(command string, preprocess PreprocessOptions) *CommandEmbedder {
	return &CommandEmbedder{Command: strings.TrimSpace(command), preprocess: preprocess}
}

// Name implements Embedder.
func (e *CommandEmbedder) Name() string { return config.BackendCommand }

// Embed implements Embedder.
func (e *CommandEmbedder) Embed(ctx context.Context, sample Sample) (Embedding, error) {
	input := sample.Path
	if input == "" {
		return nil, services.Wrap(services.ErrValidation, "embed", "command", "sample has no WAV path", nil)
	}
	if e.preprocess.TrimSilence && len(sample.Clip.Samples) > 0 {
		prepared := filepath.Join(filepath.Dir(input), strings.TrimSuffix(filepath.Base(input), ".wav")+"-prepared.wav")
		trimmed := Preprocess(sample.Clip.Samples, sample.Clip.SampleRate, e.preprocess)
		if err := wav.WriteFile(prepared, wav.Clip{SampleRate: sample.Clip.SampleRate, Samples: trimmed}); err != nil {
			return nil, services.Wrap(services.ErrTransient, "embed", "command", "write prepared sample", err)
		}
		defer os.Remove(prepared)
		input = prepared
	}

	name, args, cleanup, err := e.invocation(input)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "embed", "command", "speaker encoder timed out", ctx.Err())
		}
		return nil, services.Wrap(services.ErrExternalTool, "embed", "command", "Speaker embedding failed", summarizeStderr(err, stderr.Bytes()))
	}

	var out commandOutput
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "embed", "command", "parse encoder output", err)
	}
	if out.Error != "" {
		return nil, services.Wrap(services.ErrExternalTool, "embed", "command", "Speaker embedding failed", errors.New(out.Error))
	}
	if len(out.Embedding) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "embed", "command", "encoder returned an empty embedding", nil)
	}
	return normalize(out.Embedding), nil
}

func (e *CommandEmbedder) invocation(input string) (string, []string, func(), error) {
	command := e.Command
	if command == "" {
		command = "uvx"
	}
	if filepath.Base(command) != "uvx" {
		return command, []string{input}, func() {}, nil
	}
	scriptPath := filepath.Join(filepath.Dir(input), scriptName)
	if err := os.WriteFile(scriptPath, []byte(resemblyzerScript), 0o644); err != nil {
		return "", nil, nil, services.Wrap(services.ErrTransient, "embed", "command", "write encoder script", err)
	}
	args := []string{
		"--quiet",
		"--with", "resemblyzer",
		"--with", "numpy",
		"python", scriptPath,
		"--input", input,
	}
	return command, args, func() { _ = os.Remove(scriptPath) }, nil
}

// summarizeStderr prefers the script's JSON error, then the last Python
// exception line, then the last non-empty line.
func summarizeStderr(runErr error, stderr []byte) error {
	var parsed commandOutput
	if json.Unmarshal(bytes.TrimSpace(stderr), &parsed) == nil && parsed.Error != "" {
		return errors.New(parsed.Error)
	}
	text := strings.TrimSpace(string(stderr))
	if text == "" {
		return runErr
	}
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(line, "Error:") || strings.Contains(line, "Exception:") {
			return fmt.Errorf("%w: %s", runErr, line)
		}
	}
	return fmt.Errorf("%w: %s", runErr, strings.TrimSpace(lines[len(lines)-1]))
}
