package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voicematch/internal/daemonctl"
)

const (
	startTimeout    = 15 * time.Second
	stopGracePeriod = 10 * time.Second
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var (
		bind     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			state, err := daemonctl.Probe(cfg)
			if err != nil {
				return err
			}
			if state.Running {
				fmt.Fprintf(out, "voicematch server already running (pid %d)\n", state.PID)
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			pid, err := daemonctl.Launch(exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath,
				Bind:       bind,
				LogLevel:   logLevel,
			})
			if err != nil {
				return err
			}
			target := cfg.Paths.APIBind
			if b := strings.TrimSpace(bind); b != "" {
				target = b
			}
			if err := daemonctl.WaitForHealthy(cmd.Context(), daemonctl.HealthURL(target), startTimeout); err != nil {
				return fmt.Errorf("%w (see logs in %s)", err, cfg.Paths.LogDir)
			}
			fmt.Fprintf(out, "voicematch server started (pid %d) on %s\n", pid, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override api_bind (host:port)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging level (debug, info, warn, error)")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cfg, stopGracePeriod)
			if errors.Is(err, daemonctl.ErrNotRunning) {
				fmt.Fprintln(out, "voicematch server is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(out, "voicematch server (pid %d) did not exit in %s and was killed\n", result.PID, stopGracePeriod)
				return nil
			}
			fmt.Fprintf(out, "voicematch server stopped (pid %d)\n", result.PID)
			return nil
		},
	}
}
