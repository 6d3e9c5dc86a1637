package server

import (
	"context"
	"time"

	"voicematch/internal/logging"
)

func (s *Server) maintenanceLoop(ctx context.Context) {
	s.runMaintenance(ctx)
	ticker := time.NewTicker(MaintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runMaintenance(ctx)
		}
	}
}

// runMaintenance sweeps stale work dirs and prunes history past retention.
func (s *Server) runMaintenance(ctx context.Context) {
	swept := s.compare.Sweep(ctx)
	if len(swept.Removed) > 0 || len(swept.Errors) > 0 {
		s.logger.Info("work dir sweep complete",
			logging.Int("removed", len(swept.Removed)),
			logging.Int("errors", len(swept.Errors)),
			logging.EventType("workspace_sweep"),
		)
	}

	days := s.cfg.History.RetentionDays
	if s.store == nil || days <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	pruned, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(s.logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history database access"),
		)
		return
	}
	if pruned > 0 {
		s.logger.Info("history pruned",
			logging.Int64("removed", pruned),
			logging.Int("retention_days", days),
			logging.EventType("history_prune"),
		)
	}
}
