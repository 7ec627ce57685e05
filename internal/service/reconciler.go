package service

import (
	"context"
	"time"

	"github.com/ideahub/ideahub-server/internal/repository"
	"github.com/ideahub/ideahub-server/internal/utils"
)

// Reconciler periodically recomputes every idea's vote tally from the ledger
// and compares it to the cached vote_count. Drift should not occur as long
// as all writes go through the vote-commit transaction, so any mismatch is
// logged as a critical anomaly. The reconciler never corrects data.
type Reconciler struct {
	repo     repository.Repository
	logger   *utils.Logger
	interval time.Duration
}

// NewReconciler creates a reconciler that audits every interval.
func NewReconciler(repo repository.Repository, logger *utils.Logger, interval time.Duration) *Reconciler {
	return &Reconciler{
		repo:     repo,
		logger:   logger,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, auditing once per interval.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single audit pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	drifts, err := r.repo.AuditVoteCounts(ctx)
	if err != nil {
		r.logger.Error("vote-count audit failed: %v", err)
		return
	}

	for _, d := range drifts {
		r.logger.Critical("vote_count drift on idea %s: cached=%d ledger=%d", d.IdeaID, d.VoteCount, d.LedgerSum)
	}

	if len(drifts) == 0 {
		r.logger.Info("vote-count audit clean")
	}
}
