// Package daemonctl starts, probes, and stops a background voicematch server
// using the single-instance lock and pid file written by serverrun.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"voicematch/internal/config"
)

// ErrNotRunning indicates no server holds the instance lock.
var ErrNotRunning = errors.New("voicematch server not running")

// ProcessState describes the server found for a configuration.
type ProcessState struct {
	Running bool
	// PID is zero when the pid file is missing or stale.
	PID int
}

// LaunchOptions controls background server launch.
type LaunchOptions struct {
	ConfigPath string
	Bind       string
	LogLevel   string
}

// StopResult captures the stop outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Probe reports whether a server currently holds the instance lock.
func Probe(cfg *config.Config) (ProcessState, error) {
	if cfg == nil {
		return ProcessState{}, errors.New("config is required")
	}
	lock := flock.New(cfg.LockPath())
	acquired, err := lock.TryLock()
	if err != nil {
		return ProcessState{}, fmt.Errorf("probe instance lock: %w", err)
	}
	if acquired {
		_ = lock.Unlock()
		return ProcessState{}, nil
	}
	state := ProcessState{Running: true}
	if pid, ok := readPID(cfg.PIDPath()); ok {
		state.PID = pid
	}
	return state, nil
}

// Launch starts "<executable> serve" detached from the calling terminal.
func Launch(executablePath string, opts LaunchOptions) (int, error) {
	if strings.TrimSpace(executablePath) == "" {
		return 0, fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"serve"}
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	if bind := strings.TrimSpace(opts.Bind); bind != "" {
		args = append(args, "--bind", bind)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch server: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}

// HealthURL converts a bind address into a loopback-reachable health URL.
func HealthURL(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "http://" + strings.TrimSpace(bind) + "/healthz"
	}
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz"
}

// WaitForHealthy polls url until it answers 200 or timeout elapses.
func WaitForHealthy(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: time.Second}
	var lastErr error
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Errorf("health check returned %s", resp.Status)
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			return fmt.Errorf("server failed to become healthy: %w", lastErr)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// Stop sends SIGTERM to the running server and escalates to SIGKILL when it
// still holds the lock after gracePeriod.
func Stop(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	state, err := Probe(cfg)
	if err != nil {
		return StopResult{}, err
	}
	if !state.Running {
		return StopResult{}, ErrNotRunning
	}
	if state.PID == 0 {
		return StopResult{}, fmt.Errorf("server holds %s but pid file %s is missing", cfg.LockPath(), cfg.PIDPath())
	}
	if state.PID == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", state.PID)
	}

	result := StopResult{PID: state.PID}
	if err := unix.Kill(state.PID, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("signal server %d: %w", state.PID, err)
	}
	if waitForRelease(cfg, gracePeriod) {
		return result, nil
	}

	if err := unix.Kill(state.PID, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill server %d: %w", state.PID, err)
	}
	result.ForcedKill = true
	_ = os.Remove(cfg.PIDPath())
	if !waitForRelease(cfg, 2*time.Second) {
		return result, fmt.Errorf("server %d did not release %s", state.PID, cfg.LockPath())
	}
	return result, nil
}

func waitForRelease(cfg *config.Config, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		state, err := Probe(cfg)
		if err == nil && !state.Running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// readPID returns the pid recorded in path when that process is alive.
func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return 0, false
	}
	return pid, true
}
