package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"voicematch/internal/api"
	"voicematch/internal/config"
	"voicematch/internal/history"
)

var numberPrinter = message.NewPrinter(language.English)

func titleCase(value string) string {
	return cases.Title(language.English).String(value)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and maintain recorded comparisons",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		outcome string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent comparisons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be zero or positive")
			}
			filter := history.Filter{Limit: limit}
			if value := strings.ToLower(strings.TrimSpace(outcome)); value != "" {
				parsed, ok := history.ParseOutcome(value)
				if !ok {
					return fmt.Errorf("unknown outcome %q (expected same, different, or failed)", outcome)
				}
				filter.Outcome = parsed
			}

			return ctx.withHistory(func(cfg *config.Config, store *history.Store) error {
				records, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				precision := cfg.Matching.ScorePrecision
				if asJSON {
					return writeJSON(cmd, api.HistoryListResponse{Items: api.FromRecords(records, precision)})
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No comparisons recorded")
					return nil
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderHistoryTable(records, stats, precision, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of comparisons to show (0 for all)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (same, different, failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print comparisons as JSON")
	return cmd
}

func renderHistoryTable(records []*history.Record, stats history.Stats, precision int, now time.Time) string {
	columns := []tableColumn{
		{Header: "ID"},
		{Header: "Created"},
		{Header: "Outcome"},
		{Header: "Score", Align: alignRight},
		{Header: "First", MaxWidth: 32},
		{Header: "Second", MaxWidth: 32},
		{Header: "Elapsed", Align: alignRight},
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		score := "-"
		if rec.Outcome != history.OutcomeFailed {
			score = strconv.FormatFloat(rec.Similarity, 'f', precision, 64)
		}
		rows = append(rows, []string{
			rec.ID,
			humanize.RelTime(rec.CreatedAt, now, "ago", "from now"),
			titleCase(string(rec.Outcome)),
			score,
			describeInput(rec.First),
			describeInput(rec.Second),
			numberPrinter.Sprintf("%d ms", rec.ElapsedMs),
		})
	}
	footer := numberPrinter.Sprintf("%d shown of %d (%d same, %d different, %d failed)",
		len(records), stats.Total, stats.Same, stats.Different, stats.Failed)
	return renderTable(columns, rows, footer)
}

func describeInput(input history.Input) string {
	if input.Name == "" {
		return "-"
	}
	if input.Bytes <= 0 {
		return input.Name
	}
	return fmt.Sprintf("%s (%s)", input.Name, humanize.IBytes(uint64(input.Bytes)))
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a single comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withHistory(func(cfg *config.Config, store *history.Store) error {
				rec, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("comparison %s not found", id)
				}
				detail := api.FromRecord(rec, cfg.Matching.ScorePrecision)
				if asJSON {
					return writeJSON(cmd, api.HistoryItemResponse{Item: detail})
				}
				renderComparisonDetail(cmd.OutOrStdout(), rec, detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison as JSON")
	return cmd
}

func renderComparisonDetail(out io.Writer, rec *history.Record, detail api.ComparisonDetail) {
	line := func(label, value string) {
		fmt.Fprintf(out, "%-14s %s\n", label+":", value)
	}
	line("ID", detail.ID)
	line("Created", detail.CreatedAt)
	line("Outcome", titleCase(detail.Outcome))
	if rec.Outcome == history.OutcomeFailed {
		line("Error", detail.Error)
	} else {
		line("Similarity", strconv.FormatFloat(detail.Score, 'f', -1, 64))
		line("Same speaker", yesNo(detail.SameSpeaker))
	}
	line("Threshold", strconv.FormatFloat(detail.Threshold, 'f', -1, 64))
	line("Backend", detail.Backend)
	line("First", describeDetailInput(detail.First))
	line("Second", describeDetailInput(detail.Second))
	line("Elapsed", numberPrinter.Sprintf("%d ms", detail.ElapsedMs))
}

func describeDetailInput(input api.InputSummary) string {
	desc := describeInput(history.Input{Name: input.Name, Bytes: input.Bytes})
	if input.DurationSeconds > 0 {
		desc += fmt.Sprintf(", %.2fs", input.DurationSeconds)
	}
	return desc
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded comparison",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(_ *config.Config, store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), numberPrinter.Sprintf("Removed %d comparisons", removed))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove comparisons older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(cfg *config.Config, store *history.Store) error {
				window := cfg.History.RetentionDays
				if cmd.Flags().Changed("days") {
					window = days
				}
				if window <= 0 {
					return fmt.Errorf("retention window must be positive, got %d days", window)
				}
				cutoff := time.Now().Add(-time.Duration(window) * 24 * time.Hour)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					numberPrinter.Sprintf("Pruned %d comparisons older than %d days", removed, window))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (defaults to history.retention_days)")
	return cmd
}
