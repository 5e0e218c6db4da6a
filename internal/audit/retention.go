package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
)

// Sweeper prunes expired send records on a periodic interval.
// It is stateless: each tick independently deletes everything older than
// the retention cutoff, in bounded batches.
type Sweeper struct {
	store     storage.AuditStore
	interval  time.Duration
	maxAge    time.Duration
	batchSize int
	nowFn     func() time.Time
}

// NewSweeper creates a retention sweeper for the audit log.
func NewSweeper(store storage.AuditStore, interval, maxAge time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		store:     store,
		interval:  interval,
		maxAge:    maxAge,
		batchSize: batchSize,
		nowFn:     time.Now,
	}
}

// Start begins periodic pruning. Runs until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.store == nil {
		slog.Info("[Sweeper] Audit store absent, retention sweeper idle")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Sweeper] Starting audit retention sweeper",
		"interval", s.interval,
		"max_age", s.maxAge,
		"batch_size", s.batchSize,
	)

	// Initial sweep to catch up with any backlog.
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			slog.Info("[Sweeper] Stopping (context cancelled)")
			return nil
		}
	}
}

// sweep deletes expired records batch by batch until none remain.
func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := s.nowFn().Add(-s.maxAge)
	totalDeleted := int64(0)
	maxConsecutiveBatches := 100 // Safety limit to prevent an unbounded loop

	for batch := 0; batch < maxConsecutiveBatches; batch++ {
		select {
		case <-ctx.Done():
			slog.Info("[Sweeper] Sweep interrupted by context cancellation",
				"deleted", totalDeleted)
			return
		default:
		}

		deleted, err := s.store.PruneSendRecords(ctx, cutoff, s.batchSize)
		if err != nil {
			slog.Error("[Sweeper] Failed to prune send records", "error", err)
			return
		}

		totalDeleted += deleted
		if deleted < int64(s.batchSize) {
			break
		}
	}

	if totalDeleted > 0 {
		slog.Info("[Sweeper] Pruned expired send records",
			"deleted", totalDeleted,
			"cutoff", cutoff)
	}
}
