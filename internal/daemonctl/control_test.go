package daemonctl_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"voicematch/internal/daemonctl"
	"voicematch/internal/testsupport"
)

func TestProbeWithoutServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	state, err := daemonctl.Probe(cfg)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if state.Running || state.PID != 0 {
		t.Fatalf("expected idle state, got %+v", state)
	}
	if _, err := daemonctl.Stop(cfg, time.Second); !errors.Is(err, daemonctl.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestProbeDetectsLockHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	state, err := daemonctl.Probe(cfg)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !state.Running || state.PID != 0 {
		t.Fatalf("expected running without pid, got %+v", state)
	}
	if _, err := daemonctl.Stop(cfg, time.Second); err == nil || !strings.Contains(err.Error(), "pid file") {
		t.Fatalf("expected missing pid file error, got %v", err)
	}

	if err := os.WriteFile(cfg.PIDPath(), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	state, err = daemonctl.Probe(cfg)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if state.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), state.PID)
	}
	if _, err := daemonctl.Stop(cfg, time.Second); err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal to signal self, got %v", err)
	}
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"0.0.0.0:8000", "http://127.0.0.1:8000/healthz"},
		{":9000", "http://127.0.0.1:9000/healthz"},
		{"[::]:8000", "http://127.0.0.1:8000/healthz"},
		{"192.168.1.5:8080", "http://192.168.1.5:8080/healthz"},
		{"localhost:7000", "http://localhost:7000/healthz"},
	}
	for _, tt := range tests {
		if got := daemonctl.HealthURL(tt.bind); got != tt.want {
			t.Errorf("HealthURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestWaitForHealthy(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	if err := daemonctl.WaitForHealthy(context.Background(), healthy.URL+"/healthz", 2*time.Second); err != nil {
		t.Fatalf("WaitForHealthy: %v", err)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	err := daemonctl.WaitForHealthy(context.Background(), failing.URL+"/healthz", 500*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected 503 failure, got %v", err)
	}
}
