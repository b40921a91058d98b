package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sharexpurge/internal/core/domain"
	"sharexpurge/internal/core/ports"
	"sharexpurge/internal/history"
	"sharexpurge/internal/metrics"
)

// PurgeRequest is everything the CLI resolves before a run starts.
type PurgeRequest struct {
	Path     string
	Criteria domain.Criteria
	DryRun   bool
	Progress ports.ProgressFunc
}

// Orchestrator coordinates the purge workflow: read, select, delete.
type Orchestrator struct {
	source ports.HistorySource
	bulk   *BulkDeleter
	logger *slog.Logger
	now    func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(source ports.HistorySource, bulk *BulkDeleter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		source: source,
		bulk:   bulk,
		logger: logger,
		now:    time.Now,
	}
}

// RunPurge executes a complete purge for the given request.
//
// Read and parse failures abort the run and are returned as errors. An
// empty selection and an oversized batch are reported on the result.
func (o *Orchestrator) RunPurge(ctx context.Context, req PurgeRequest) (*domain.RunResult, error) {
	runID := uuid.New().String()
	logger := o.logger.With(slog.String("run_id", runID))

	result := &domain.RunResult{
		RunID:     runID,
		Path:      req.Path,
		Criteria:  req.Criteria,
		DryRun:    req.DryRun,
		StartedAt: o.now().UTC(),
	}
	defer func() {
		result.CompletedAt = o.now().UTC()
		metrics.ObserveRun(result.CompletedAt.Sub(result.StartedAt).Seconds())
	}()

	logger.Info("reading history", slog.String("path", req.Path))
	raw, err := o.source.Read(req.Path)
	if err != nil {
		logger.Error("failed to read history", slog.Any("error", err))
		return result, err
	}

	records, err := history.Decode(raw)
	if err != nil {
		logger.Error("failed to decode history", slog.Any("error", err))
		return result, err
	}
	result.Decoded = len(records)
	metrics.AddDecoded(len(records))

	result.Selected = history.Select(records, req.Criteria)
	metrics.AddSelected(req.Criteria.Host, len(result.Selected))
	logger.Info("history filtered",
		slog.Int("records", result.Decoded),
		slog.Int("selected", len(result.Selected)),
		slog.String("host", req.Criteria.Host),
		slog.Time("cutoff", req.Criteria.Cutoff),
	)

	if len(result.Selected) == 0 {
		result.NothingToDo = true
		logger.Info("no items to delete")
		return result, nil
	}
	if req.DryRun {
		logger.Info("dry run, skipping deletion")
		return result, nil
	}

	outcomes, err := o.bulk.Run(ctx, result.Selected, req.Progress)
	if err != nil {
		var tooLarge *domain.BatchTooLargeError
		if errors.As(err, &tooLarge) {
			metrics.IncBatchRejected(req.Criteria.Host)
			logger.Warn("batch rejected",
				slog.Int("limit", tooLarge.Limit),
				slog.Int("attempted", tooLarge.Attempted),
			)
			result.BatchRejected = tooLarge
			return result, nil
		}
		return result, fmt.Errorf("bulk delete: %w", err)
	}

	result.Outcomes = outcomes
	for _, out := range outcomes {
		metrics.IncDeletion(req.Criteria.Host, out.Succeeded)
		if out.Succeeded {
			result.Succeeded++
		} else {
			result.Failed++
		}
		if out.RateLimit != nil {
			result.LastRateLimit = out.RateLimit
		}
	}
	if result.LastRateLimit != nil {
		metrics.SetRateRemaining(req.Criteria.Host, result.LastRateLimit.Remaining)
	}

	logger.Info("purge completed",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}
