package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharexpurge/internal/adapters/deleter"
	"sharexpurge/internal/adapters/historyfile"
	"sharexpurge/internal/core/domain"
	"sharexpurge/internal/history"
)

func writeHistory(t *testing.T, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "History.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(entries, ",\r\n")), 0o644))
	return path
}

func upload(name, host, deletionURL string, at time.Time) string {
	return fmt.Sprintf(`{"FileName":%q,"DateTime":%q,"Type":"Image","Host":%q,"Tags":{"ProcessName":"ShareX"},"URL":"https://i.imgur.com/%s","DeletionURL":%q}`,
		name, at.Format(time.RFC3339Nano), host, name, deletionURL)
}

type fixture struct {
	server *httptest.Server
	hits   *atomic.Int32
	orch   *Orchestrator
}

func newFixture(t *testing.T, maxBatch int) fixture {
	t.Helper()
	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("x-post-rate-limit-remaining", "1200")
		w.Header().Set("x-post-rate-limit-limit", "1250")
		w.Header().Set("x-post-rate-limit-reset", "3000")
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	bulk := NewBulkDeleter(deleter.NewHTTPDeleter(5*time.Second), maxBatch, quietLogger())
	return fixture{
		server: server,
		hits:   hits,
		orch:   NewOrchestrator(historyfile.NewReader(), bulk, quietLogger()),
	}
}

func TestRunPurge_DeletesSelection(t *testing.T) {
	f := newFixture(t, 0)
	now := time.Now()
	path := writeHistory(t,
		upload("one.png", "Imgur", f.server.URL+"/delete/one", now.Add(-2*time.Hour)),
		upload("two.png", "Imgur", "", now.Add(-time.Hour)),
		upload("old.png", "Imgur", f.server.URL+"/delete/old", now.Add(-72*time.Hour)),
		upload("other.png", "Catbox", f.server.URL+"/delete/other", now),
		upload("gone.png", "Imgur", f.server.URL+"/delete/gone", now.Add(-time.Minute)),
	)

	var ticks atomic.Int32
	result, err := f.orch.RunPurge(context.Background(), PurgeRequest{
		Path:     path,
		Criteria: domain.Criteria{Host: "Imgur", Cutoff: history.DefaultCutoff(now)},
		Progress: func(int, int) { ticks.Add(1) },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 5, result.Decoded)
	assert.Equal(t, []string{f.server.URL + "/delete/one", f.server.URL + "/delete/gone"}, result.Selected)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, http.StatusNotFound, result.Outcomes[1].StatusCode)
	assert.False(t, result.NothingToDo)
	assert.Nil(t, result.BatchRejected)
	require.NotNil(t, result.LastRateLimit)
	assert.Equal(t, "1200", result.LastRateLimit.Remaining)
	assert.Equal(t, int32(2), f.hits.Load())
	assert.Equal(t, int32(2), ticks.Load())
	assert.False(t, result.CompletedAt.Before(result.StartedAt))
}

func TestRunPurge_NothingToDo(t *testing.T) {
	f := newFixture(t, 0)
	now := time.Now()
	path := writeHistory(t, upload("other.png", "Catbox", f.server.URL+"/delete/x", now))

	result, err := f.orch.RunPurge(context.Background(), PurgeRequest{
		Path:     path,
		Criteria: domain.Criteria{Host: "Imgur", Cutoff: history.DefaultCutoff(now)},
	})
	require.NoError(t, err)
	assert.True(t, result.NothingToDo)
	assert.Equal(t, 1, result.Decoded)
	assert.Empty(t, result.Outcomes)
	assert.Zero(t, f.hits.Load())
}

func TestRunPurge_DryRun(t *testing.T) {
	f := newFixture(t, 0)
	now := time.Now()
	path := writeHistory(t, upload("one.png", "Imgur", f.server.URL+"/delete/one", now))

	result, err := f.orch.RunPurge(context.Background(), PurgeRequest{
		Path:     path,
		Criteria: domain.Criteria{Host: "Imgur", Cutoff: history.Unbounded()},
		DryRun:   true,
	})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Selected, 1)
	assert.Empty(t, result.Outcomes)
	assert.Zero(t, f.hits.Load())
}

func TestRunPurge_BatchRejected(t *testing.T) {
	f := newFixture(t, 2)
	now := time.Now()
	path := writeHistory(t,
		upload("a.png", "Imgur", f.server.URL+"/delete/a", now),
		upload("b.png", "Imgur", f.server.URL+"/delete/b", now),
		upload("c.png", "Imgur", f.server.URL+"/delete/c", now),
	)

	result, err := f.orch.RunPurge(context.Background(), PurgeRequest{
		Path:     path,
		Criteria: domain.Criteria{Host: "Imgur", Cutoff: history.Unbounded()},
	})
	require.NoError(t, err)
	require.NotNil(t, result.BatchRejected)
	assert.Equal(t, 2, result.BatchRejected.Limit)
	assert.Equal(t, 3, result.BatchRejected.Attempted)
	assert.Empty(t, result.Outcomes)
	assert.Zero(t, f.hits.Load())
}

func TestRunPurge_FatalErrors(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.orch.RunPurge(context.Background(), PurgeRequest{
		Path:     filepath.Join(t.TempDir(), "nope.json"),
		Criteria: domain.Criteria{Host: "Imgur"},
	})
	require.ErrorIs(t, err, domain.ErrPathNotFound)

	bad := writeHistory(t, `{"FileName":"a","DateTime":"2024-03-01T10:30:00+00:00","Type":"Image","Host":"Imgur"}{"FileName":"b"}`)
	result, err := f.orch.RunPurge(context.Background(), PurgeRequest{
		Path:     bad,
		Criteria: domain.Criteria{Host: "Imgur", Cutoff: history.Unbounded()},
	})
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Zero(t, result.Decoded)
	assert.Empty(t, result.Selected)
	assert.Zero(t, f.hits.Load())
}

func TestPrintSummary(t *testing.T) {
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	base := domain.RunResult{
		RunID:    "run-1",
		Path:     "History.json",
		Criteria: domain.Criteria{Host: "Imgur", Cutoff: cutoff},
		Decoded:  3,
		Selected: []string{"https://d/a", "https://d/b"},
	}

	t.Run("outcomes", func(t *testing.T) {
		r := base
		r.Outcomes = []domain.DeletionOutcome{
			{Endpoint: "https://d/a", Succeeded: true, StatusCode: 200},
			{Endpoint: "https://d/b", StatusCode: 429, Error: "unexpected status code: 429"},
		}
		r.Succeeded, r.Failed = 1, 1
		r.LastRateLimit = &domain.RateLimit{Remaining: "0", Limit: "1250", Reset: "900"}

		var buf bytes.Buffer
		PrintSummary(&buf, &r)
		out := buf.String()
		assert.Contains(t, out, "Run ID:       run-1")
		assert.Contains(t, out, "Deleted:      1")
		assert.Contains(t, out, "https://d/b (status 429)")
		assert.NotContains(t, out, "https://d/a (status")
		assert.Contains(t, out, "remaining 0 / limit 1250, reset 900")
	})

	t.Run("nothing to do", func(t *testing.T) {
		r := base
		r.Selected = nil
		r.NothingToDo = true
		var buf bytes.Buffer
		PrintSummary(&buf, &r)
		assert.Contains(t, buf.String(), "No items to delete!")
	})

	t.Run("rejected", func(t *testing.T) {
		r := base
		r.BatchRejected = &domain.BatchTooLargeError{Limit: 1250, Attempted: 1300}
		var buf bytes.Buffer
		PrintSummary(&buf, &r)
		assert.Contains(t, buf.String(), "(1300, limit 1250)")
	})

	t.Run("dry run", func(t *testing.T) {
		r := base
		r.DryRun = true
		var buf bytes.Buffer
		PrintSummary(&buf, &r)
		assert.Contains(t, buf.String(), "  https://d/a\n")
	})
}
