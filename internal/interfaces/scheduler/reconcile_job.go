package scheduler

import (
	"context"
	"fmt"

	"mrk/internal/domain/reconciliation"
	"mrk/internal/shared/logger"
)

// Reconciler is the part of the reconciliation service the job drives.
type Reconciler interface {
	AutoMatch(ctx context.Context) (int, error)
	ValidatePending(ctx context.Context) (*reconciliation.ValidationSummary, error)
}

// ReconcileJob assigns projects to unassociated transactions and then
// validates pending ones against realized movements.
type ReconcileJob struct {
	reconciler Reconciler
}

func NewReconcileJob(reconciler Reconciler) *ReconcileJob {
	return &ReconcileJob{reconciler: reconciler}
}

func (j *ReconcileJob) Execute(ctx context.Context) error {
	l := logger.FromContext(ctx)

	matched, err := j.reconciler.AutoMatch(ctx)
	if err != nil {
		return fmt.Errorf("auto-match failed, skipping validation: %w", err)
	}

	summary, err := j.reconciler.ValidatePending(ctx)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	l.Info().
		Int("matched", matched).
		Int("checked", summary.Checked).
		Int("validated", summary.Validated).
		Int("discrepancies", summary.Discrepancies).
		Int("pending", summary.Pending).
		Msg("reconciliation completed")

	return nil
}

func (j *ReconcileJob) Name() string { return "reconcile" }

func (j *ReconcileJob) Description() string {
	return "Auto-match projects and validate pending transactions"
}

// ReconcileProvider yields a single ReconcileJob per scheduled run.
func ReconcileProvider(reconciler Reconciler) JobProvider {
	return func(context.Context) ([]Job, error) {
		return []Job{NewReconcileJob(reconciler)}, nil
	}
}
