package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"voicematch/internal/serverrun"
)

var version = "dev"

func main() {
	if err := run(context.Background(), os.Getenv, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("voicematchd: %v", err)
	}
}

// run loads configuration from VOICEMATCH_CONFIG (or the default locations)
// and serves until ctx is cancelled or a termination signal arrives.
func run(ctx context.Context, getenv func(string) string, stdout io.Writer) error {
	cfg, err := loadConfig(getenv)
	if err != nil {
		return err
	}
	return serverrun.Run(ctx, cfg, serverrun.Options{
		LogLevel: getenv("VOICEMATCH_LOG_LEVEL"),
		Version:  version,
		Stdout:   stdout,
	})
}
