package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"voicematch/internal/api"
	"voicematch/internal/compare"
	"voicematch/internal/history"
	"voicematch/internal/services"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON    bool
		threshold float64
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "compare FILE1 FILE2",
		Short: "Compare two local recordings without starting the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *loaded
			if cmd.Flags().Changed("threshold") {
				if threshold < -1 || threshold > 1 {
					return fmt.Errorf("--threshold must be between -1 and 1, got %g", threshold)
				}
				cfg.Matching.SameSpeakerThreshold = threshold
			}

			first, closeFirst, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer closeFirst()
			second, closeSecond, err := openInput(args[1])
			if err != nil {
				return err
			}
			defer closeSecond()

			logger := commandLogger(cmd, &cfg)
			var opts []compare.Option
			if cfg.History.Enabled && !noHistory {
				store, err := history.Open(&cfg)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer store.Close()
				opts = append(opts, compare.WithRecorder(store))
			}

			svc, err := compare.NewService(&cfg, logger, opts...)
			if err != nil {
				return err
			}
			result, err := svc.Compare(cmd.Context(), compare.Request{First: first, Second: second})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				return fmt.Errorf("compare failed: %s", services.Message(err))
			}

			if asJSON {
				return writeJSON(cmd, api.FromResult(result, cfg.Matching.ScorePrecision))
			}
			renderVerdict(cmd.OutOrStdout(), result, cfg.Matching.ScorePrecision, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison as JSON")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override same_speaker_threshold for this comparison")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this comparison in history")
	return cmd
}

func openInput(path string) (compare.Input, func(), error) {
	file, err := os.Open(path)
	if err != nil {
		return compare.Input{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return compare.Input{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		file.Close()
		return compare.Input{}, nil, fmt.Errorf("%s is a directory", path)
	}
	input := compare.Input{Name: filepath.Base(path), Reader: file, Size: info.Size()}
	return input, func() { _ = file.Close() }, nil
}

func renderVerdict(out io.Writer, result compare.Result, precision int, colorize bool) {
	verdict, color := "different speakers", ansiRed
	if result.SameSpeaker {
		verdict, color = "same speaker", ansiGreen
	}
	fmt.Fprintf(out, "%-12s %s\n", "Verdict:", paint(strings.ToUpper(verdict[:1])+verdict[1:], ansiBold+color, colorize))
	fmt.Fprintf(out, "%-12s %.*f\n", "Similarity:", precision, result.Score)
	fmt.Fprintf(out, "%-12s %g\n", "Threshold:", result.Threshold)
	fmt.Fprintf(out, "%-12s %s\n", "Backend:", result.Backend)
	fmt.Fprintf(out, "%-12s %s (%.2fs)\n", "First:", result.First.Name, result.First.DurationSeconds)
	fmt.Fprintf(out, "%-12s %s (%.2fs)\n", "Second:", result.Second.Name, result.Second.DurationSeconds)
	fmt.Fprintf(out, "%-12s %s\n", "ID:", result.ID)
}
