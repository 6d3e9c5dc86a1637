package server

import (
	"context"
	"os"
	"time"

	"voicematch/internal/api"
	"voicematch/internal/deps"
	"voicematch/internal/logging"
)

// Status assembles the /api/status payload.
func (s *Server) Status(ctx context.Context) api.StatusResponse {
	uptime := time.Since(s.startedAt).Truncate(time.Second)
	resp := api.StatusResponse{
		Version:       s.opts.Version,
		PID:           os.Getpid(),
		StartedAt:     api.FormatTime(s.startedAt),
		Uptime:        uptime.String(),
		UptimeSeconds: int64(uptime.Seconds()),
		Backend:       s.compare.Backend(),
		Threshold:     s.compare.Threshold(),
		InFlight:      s.inFlight.Load(),
		Dependencies:  api.FromDependencies(deps.CheckBinaries(deps.Requirements(s.cfg))),
	}
	if s.historySvc != nil {
		stats, err := s.historySvc.Stats(ctx)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "history stats unavailable", "history_stats_failed",
				logging.Error(err),
			)
		}
		resp.Stats = stats
	}
	return resp
}
