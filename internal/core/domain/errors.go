package domain

import (
	"errors"
	"fmt"
)

// Fatal pipeline errors. Callers match them with errors.Is.
var (
	ErrPathNotFound  = errors.New("history file not found")
	ErrIO            = errors.New("history file unreadable")
	ErrParse         = errors.New("history file malformed")
	ErrBatchTooLarge = errors.New("batch exceeds deletion limit")
)

// BatchTooLargeError reports a selection larger than the configured batch limit.
type BatchTooLargeError struct {
	Limit     int
	Attempted int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("%d deletions requested, limit is %d", e.Attempted, e.Limit)
}

// Unwrap lets errors.Is(err, ErrBatchTooLarge) match.
func (e *BatchTooLargeError) Unwrap() error { return ErrBatchTooLarge }
