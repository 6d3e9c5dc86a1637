package main

import (
	"strings"

	"github.com/spf13/cobra"

	"voicematch/internal/serverrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		bind        string
		logLevel    string
		development bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP comparison server in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return serverrun.Run(cmd.Context(), cfg, serverrun.Options{
				LogLevel:    strings.TrimSpace(logLevel),
				Bind:        strings.TrimSpace(bind),
				Development: development,
				Version:     version,
				Stdout:      cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override api_bind (host:port)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development logging (source locations)")
	return cmd
}
