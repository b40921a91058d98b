package service

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"sharexpurge/internal/core/domain"
	"sharexpurge/internal/core/ports"
)

// DefaultMaxBatch matches Imgur's hourly POST quota.
const DefaultMaxBatch = 1250

// BulkDeleter dispatches a batch of deletion requests concurrently.
type BulkDeleter struct {
	deleter  ports.Deleter
	maxBatch int
	logger   *slog.Logger
}

// NewBulkDeleter creates a BulkDeleter. A non-positive maxBatch selects DefaultMaxBatch.
func NewBulkDeleter(deleter ports.Deleter, maxBatch int, logger *slog.Logger) *BulkDeleter {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkDeleter{deleter: deleter, maxBatch: maxBatch, logger: logger}
}

// MaxBatch returns the configured batch limit.
func (b *BulkDeleter) MaxBatch() int { return b.maxBatch }

// Run issues one deletion per endpoint and waits for all of them.
//
// An empty batch returns an empty result without touching the network.
// A batch larger than the limit returns *domain.BatchTooLargeError and
// sends nothing. Otherwise every request runs to completion regardless of
// the others, and outcomes are returned in endpoint order.
func (b *BulkDeleter) Run(ctx context.Context, endpoints []string, progress ports.ProgressFunc) ([]domain.DeletionOutcome, error) {
	if len(endpoints) == 0 {
		return []domain.DeletionOutcome{}, nil
	}
	if len(endpoints) > b.maxBatch {
		return nil, &domain.BatchTooLargeError{Limit: b.maxBatch, Attempted: len(endpoints)}
	}

	total := len(endpoints)
	outcomes := make([]domain.DeletionOutcome, total)

	var (
		mu        sync.Mutex
		completed int
	)
	tick := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progress != nil {
			progress(completed, total)
		}
	}

	var g errgroup.Group
	for i, endpoint := range endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			outcome := b.deleter.Delete(ctx, endpoint)
			outcomes[i] = outcome
			if !outcome.Succeeded {
				b.logger.Warn("deletion failed",
					slog.String("endpoint", endpoint),
					slog.Int("status", outcome.StatusCode),
					slog.String("error", outcome.Error),
				)
			}
			tick()
			// Failures stay in the outcome so the rest of the batch keeps going.
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}
