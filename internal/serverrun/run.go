// Package serverrun wires configuration, logging, history, and the compare
// service into a running HTTP server. Both voicematchd and "voicematch serve"
// call Run.
package serverrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"voicematch/internal/compare"
	"voicematch/internal/config"
	"voicematch/internal/history"
	"voicematch/internal/logging"
	"voicematch/internal/preflight"
	"voicematch/internal/server"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Bind        string
	Development bool
	Version     string
	// Stdout receives console logs; defaults to os.Stdout.
	Stdout io.Writer
}

// Run starts the server and blocks until ctx is cancelled or the process
// receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("voicematch-%s.log", runID))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer logFile.Close()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	console, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Writer:      stdout,
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := logging.TeeLogger(console, logging.NewJSONHandler(logFile, level)).
		With(logging.String("run_id", uuid.NewString()))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update voicematch.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "voicematch-*.log", Exclude: []string{logPath}},
	)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logDependencySnapshot(signalCtx, logger, cfg)

	var (
		store   *history.Store
		svcOpts []compare.Option
	)
	if cfg.History.Enabled {
		store, err = history.Open(cfg)
		if err != nil {
			logging.ErrorWithContext(logger, "open history store", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete "+cfg.HistoryDBPath()+" or disable [history]"),
			)
			return err
		}
		svcOpts = append(svcOpts, compare.WithRecorder(store))
	}

	svc, err := compare.NewService(cfg, logger, svcOpts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("create compare service: %w", err)
	}

	srv, err := server.New(cfg, svc, store, logger, server.Options{Version: opts.Version, Bind: opts.Bind})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	if err := srv.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "server start failed", "server_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check api_bind and that no other instance is running"),
			logging.String(logging.FieldImpact, "comparisons are unavailable"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("voicematch server shutting down", logging.EventType("server_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "voicematch.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffmpeg := preflight.ProbeFFmpegVersion(ctx, cfg.Audio.FFmpegBinary)
	logger.Info("dependency snapshot",
		logging.EventType("dependency_snapshot"),
		logging.Bool("ffmpeg_available", ffmpeg.Found),
		logging.String("ffmpeg_binary", ffmpeg.Command),
		logging.String("ffmpeg_version", ffmpeg.Detail()),
		logging.String("ffprobe_binary", cfg.Audio.FFprobeBinary),
		logging.String("backend", cfg.Embedding.Backend),
		logging.Float64("threshold", cfg.Matching.SameSpeakerThreshold),
		logging.Int("max_concurrent", cfg.Matching.MaxConcurrent),
		logging.Bool("history_enabled", cfg.History.Enabled),
	)
	for _, failure := range preflight.Failures(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failure.Name),
			logging.String("detail", failure.Detail),
			logging.String(logging.FieldErrorHint, "run 'voicematch status' for details"),
		)
	}
}
