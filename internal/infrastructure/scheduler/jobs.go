package scheduler

import (
	"context"

	appinventory "github.com/estateflow/backend/internal/application/inventory"
	apppipeline "github.com/estateflow/backend/internal/application/pipeline"
	"github.com/estateflow/backend/internal/infrastructure/config"
	"github.com/estateflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Job names
const (
	JobReconcileBuildings = "reconcile_buildings"
	JobFollowUpDigest     = "followup_digest"
)

// BuildingReconciler recomputes building counters from their floor units
type BuildingReconciler interface {
	ReconcileAll(ctx context.Context) (appinventory.ReconcileSummary, error)
}

// FollowUpTriager buckets pending follow-ups
type FollowUpTriager interface {
	Triage(ctx context.Context) (*apppipeline.TriageResponse, error)
}

// ReconcileBuildingsJob reconciles every building and logs the drift found
func ReconcileBuildingsJob(reconciler BuildingReconciler) JobFunc {
	return func(ctx context.Context) error {
		summary, err := reconciler.ReconcileAll(ctx)
		log := logger.FromContext(ctx)
		fields := []zap.Field{
			zap.Int("checked", summary.Checked),
			zap.Int("drifted", summary.Drifted),
			zap.Int("failed", summary.Failed),
		}
		if summary.Drifted > 0 {
			log.Warn("Building counters drifted and were corrected", fields...)
		} else {
			log.Info("Building counters reconciled", fields...)
		}
		return err
	}
}

// FollowUpDigestJob logs the overdue, due-today and upcoming follow-up counts
func FollowUpDigestJob(triager FollowUpTriager) JobFunc {
	return func(ctx context.Context) error {
		triage, err := triager.Triage(ctx)
		if err != nil {
			return err
		}
		log := logger.FromContext(ctx)
		log.Info("Follow-up digest",
			zap.Int("overdue", len(triage.Overdue)),
			zap.Int("due_today", len(triage.DueToday)),
			zap.Int("upcoming", triage.UpcomingTotal),
		)
		for _, f := range triage.Overdue {
			log.Warn("Follow-up overdue",
				zap.String("follow_up_id", f.ID.String()),
				zap.String("lead_id", f.LeadID.String()),
				zap.Time("scheduled_at", f.ScheduledAt),
			)
		}
		return nil
	}
}

// RegisterDefaultJobs registers the reconcile and follow-up digest jobs on
// their configured schedules
func RegisterDefaultJobs(s *Scheduler, cfg config.SchedulerConfig, reconciler BuildingReconciler, triager FollowUpTriager) error {
	if err := s.Register(JobReconcileBuildings, cfg.ReconcileCron, ReconcileBuildingsJob(reconciler)); err != nil {
		return err
	}
	return s.Register(JobFollowUpDigest, cfg.FollowUpDigestCron, FollowUpDigestJob(triager))
}
