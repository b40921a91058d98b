package ports

import (
	"context"

	"sharexpurge/internal/core/domain"
)

// HistorySource defines the contract for loading the raw history log.
type HistorySource interface {
	// Read returns the log contents repaired into a JSON array literal.
	Read(path string) ([]byte, error)
}

// Deleter defines the contract for invoking a single deletion endpoint.
type Deleter interface {
	// Delete confirms deletion at endpoint. Transport failures and
	// non-success statuses are reported in the outcome, never as a panic.
	Delete(ctx context.Context, endpoint string) domain.DeletionOutcome
}

// ProgressFunc receives a tick after every completed deletion request.
// Calls are serialized and completed increases by exactly one per call.
type ProgressFunc func(completed, total int)
