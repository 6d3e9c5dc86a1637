package main

import (
	"fmt"
	"strings"

	"voicematch/internal/config"
)

func loadConfig(getenv func(string) string) (*config.Config, error) {
	path := strings.TrimSpace(getenv("VOICEMATCH_CONFIG"))
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
