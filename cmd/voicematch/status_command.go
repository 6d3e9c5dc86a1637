package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voicematch/internal/config"
	"voicematch/internal/daemonctl"
	"voicematch/internal/deps"
	"voicematch/internal/history"
	"voicematch/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report server, dependency, and history status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range statusLines(cmd.Context(), cfg, ctx.configPath, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func statusLines(ctx context.Context, cfg *config.Config, configPath string, colorize bool) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Server", colorize)...)
	lines = append(lines, renderStatusLine("Config", statusInfo, configPath, colorize))
	lines = append(lines, serverLine(cfg, colorize))
	lines = append(lines, renderStatusLine("Bind", statusInfo, cfg.Paths.APIBind, colorize))
	lines = append(lines, renderStatusLine("Embedding", statusInfo, cfg.Embedding.Backend, colorize))
	lines = append(lines, renderStatusLine("Threshold", statusInfo, strconv.FormatFloat(cfg.Matching.SameSpeakerThreshold, 'f', -1, 64), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	lines = append(lines, dependencyLines(preflight.CheckSystemDeps(ctx, cfg), colorize)...)
	ffmpeg := preflight.ProbeFFmpegVersion(ctx, cfg.Audio.FFmpegBinary)
	ffmpegKind := statusOK
	if !ffmpeg.Found {
		ffmpegKind = statusError
	}
	lines = append(lines, renderStatusLine("FFmpeg version", ffmpegKind, ffmpeg.Detail(), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Preflight", colorize)...)
	for _, result := range preflight.RunAll(ctx, cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("History", colorize)...)
	lines = append(lines, historyLine(ctx, cfg, colorize))

	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Path != "" {
				message = fmt.Sprintf("Ready (%s)", dep.Path)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

// serverLine reports whether a server holds the single-instance lock.
func serverLine(cfg *config.Config, colorize bool) string {
	state, err := daemonctl.Probe(cfg)
	if err != nil {
		return renderStatusLine("Server", statusWarn, err.Error(), colorize)
	}
	if !state.Running {
		return renderStatusLine("Server", statusInfo, "Not running", colorize)
	}
	message := "Running"
	if state.PID > 0 {
		message = fmt.Sprintf("Running (pid %d)", state.PID)
	}
	return renderStatusLine("Server", statusOK, message, colorize)
}

func historyLine(ctx context.Context, cfg *config.Config, colorize bool) string {
	if !cfg.History.Enabled {
		return renderStatusLine("Comparisons", statusInfo, "History disabled", colorize)
	}
	store, err := history.Open(cfg)
	if err != nil {
		return renderStatusLine("Comparisons", statusError, err.Error(), colorize)
	}
	defer store.Close()
	stats, err := store.Stats(ctx)
	if err != nil {
		return renderStatusLine("Comparisons", statusError, err.Error(), colorize)
	}
	summary := numberPrinter.Sprintf("%d total (%d same, %d different, %d failed)",
		stats.Total, stats.Same, stats.Different, stats.Failed)
	return renderStatusLine("Comparisons", statusOK, summary, colorize)
}
