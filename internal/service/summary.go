package service

import (
	"fmt"
	"io"
	"time"

	"sharexpurge/internal/core/domain"
)

// PrintSummary writes a human-readable report of a run.
func PrintSummary(w io.Writer, r *domain.RunResult) {
	fmt.Fprintln(w, "\n=== Purge Summary ===")
	fmt.Fprintf(w, "Run ID:       %s\n", r.RunID)
	fmt.Fprintf(w, "History:      %s\n", r.Path)
	fmt.Fprintf(w, "Host:         %s\n", r.Criteria.Host)
	fmt.Fprintf(w, "Cutoff:       %s\n", r.Criteria.Cutoff.Format(time.RFC3339))
	fmt.Fprintf(w, "Records:      %d\n", r.Decoded)
	fmt.Fprintf(w, "Selected:     %d\n", len(r.Selected))

	switch {
	case r.NothingToDo:
		fmt.Fprintln(w, "No items to delete!")
	case r.BatchRejected != nil:
		fmt.Fprintf(w, "Too many items to delete (%d, limit %d), narrow the time window and try again.\n",
			r.BatchRejected.Attempted, r.BatchRejected.Limit)
	case r.DryRun:
		fmt.Fprintln(w, "Dry run, nothing was deleted:")
		for _, e := range r.Selected {
			fmt.Fprintf(w, "  %s\n", e)
		}
	default:
		fmt.Fprintf(w, "Deleted:      %d\n", r.Succeeded)
		fmt.Fprintf(w, "Failed:       %d\n", r.Failed)
		for _, o := range r.Outcomes {
			if o.Succeeded {
				continue
			}
			fmt.Fprintf(w, "  %s (status %d): %s\n", o.Endpoint, o.StatusCode, o.Error)
		}
		if rl := r.LastRateLimit; rl != nil {
			fmt.Fprintf(w, "Rate limit:   remaining %s / limit %s, reset %s\n", rl.Remaining, rl.Limit, rl.Reset)
		}
	}
	if !r.CompletedAt.IsZero() {
		fmt.Fprintf(w, "Completed At: %s\n", r.CompletedAt.Format(time.RFC3339))
	}
}
