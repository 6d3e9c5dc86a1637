package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"voicematch/internal/testsupport"
)

func envFunc(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithThreshold(0.6))
	path := filepath.Join(testsupport.BaseDir(cfg), "voicematchd.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := loadConfig(envFunc(map[string]string{"VOICEMATCH_CONFIG": path}))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if loaded.Matching.SameSpeakerThreshold != 0.6 {
		t.Fatalf("expected threshold 0.6, got %v", loaded.Matching.SameSpeakerThreshold)
	}
	if loaded.Paths.DataDir != cfg.Paths.DataDir {
		t.Fatalf("expected data dir %q, got %q", cfg.Paths.DataDir, loaded.Paths.DataDir)
	}
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[audio]\nsample_rate = -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := loadConfig(envFunc(map[string]string{"VOICEMATCH_CONFIG": path}))
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load config error, got %v", err)
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPassthroughFFmpeg())
	path := filepath.Join(testsupport.BaseDir(cfg), "voicematchd.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var stdout bytes.Buffer
	go func() {
		done <- run(ctx, envFunc(map[string]string{"VOICEMATCH_CONFIG": path}), &stdout)
	}()

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(cfg.PIDPath()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server never wrote its pid file")
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
