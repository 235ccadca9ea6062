package service

import (
	"context"
	"time"

	"floodguard/internal/metrics"
)

const (
	sweepInterval = time.Hour
	purgeInterval = 24 * time.Hour
)

// StartMaintenance runs the background sweeps until ctx is cancelled.
// Hourly it prunes idle tracker keys and deactivates expired mutes; daily
// it purges violations past the retention horizon.
func (s *ModerationService) StartMaintenance(ctx context.Context) {
	sweep := time.NewTicker(sweepInterval)
	purge := time.NewTicker(purgeInterval)

	go func() {
		defer sweep.Stop()
		defer purge.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sweep.C:
				s.sweepOnce(ctx, s.clock.Now())
			case <-purge.C:
				s.purgeOnce(ctx, s.clock.Now())
			}
		}
	}()
}

// RunMaintenanceOnce runs every maintenance action immediately and reports
// what happened. A zero now means the current time. Failures are collected
// per action so one failing action does not stop the others.
func (s *ModerationService) RunMaintenanceOnce(ctx context.Context, now time.Time) *MaintenanceReport {
	ctx, span := s.tracer.Start(ctx, "RunMaintenanceOnce")
	defer span.End()

	if now.IsZero() {
		now = s.clock.Now()
	}

	report := &MaintenanceReport{RanAt: now}

	pruned, deactivated, errs := s.sweepOnce(ctx, now)
	report.PrunedKeys = pruned
	report.Deactivated = deactivated
	report.Errors = append(report.Errors, errs...)

	purged, errs := s.purgeOnce(ctx, now)
	report.Purged = purged
	report.Errors = append(report.Errors, errs...)

	return report
}

// sweepOnce drops tracker keys whose entire window has elapsed and
// deactivates mutes whose expiry has passed.
func (s *ModerationService) sweepOnce(ctx context.Context, now time.Time) (int, int64, []string) {
	var errs []string

	pruned := s.tracker.PruneExpiredKeys(now)
	metrics.IncMaintenanceRun("prune_tracker", nil)
	if pruned > 0 {
		s.logger.Debug("Pruned idle tracker keys", "count", pruned)
	}

	deactivated, err := s.violations.DeactivateExpired(ctx, now)
	metrics.IncMaintenanceRun("deactivate_expired", err)
	if err != nil {
		metrics.IncStorageError("deactivate_expired")
		s.logger.Error("Failed to deactivate expired mutes", "error", err)
		errs = append(errs, err.Error())
	} else if deactivated > 0 {
		s.logger.Info("Deactivated expired mutes", "count", deactivated)
	}

	return pruned, deactivated, errs
}

// purgeOnce deletes violations older than the retention horizon.
func (s *ModerationService) purgeOnce(ctx context.Context, now time.Time) (int64, []string) {
	horizon := now.AddDate(0, 0, -s.cfg.RetentionDays)

	purged, err := s.violations.PurgeOlderThan(ctx, horizon)
	metrics.IncMaintenanceRun("purge", err)
	if err != nil {
		metrics.IncStorageError("purge")
		s.logger.Error("Failed to purge old violations", "error", err, "horizon", horizon)
		return 0, []string{err.Error()}
	}
	if purged > 0 {
		s.logger.Info("Purged old violations", "count", purged, "horizon", horizon)
	}
	return purged, nil
}
