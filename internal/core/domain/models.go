package domain

import "time"

// HistoryRecord represents a single upload entry from the ShareX history log.
type HistoryRecord struct {
	FileName     string
	FilePath     string
	UploadedAt   time.Time
	Kind         string // "Image", "File", "URL", ...
	Host         string
	Tags         *Tags
	URL          string
	ThumbnailURL string
	DeletionURL  string
}

// Tags holds the capture context recorded next to an upload.
type Tags struct {
	WindowTitle string
	ProcessName string
}

// Deletable reports whether the record carries a deletion capability.
func (r HistoryRecord) Deletable() bool {
	return r.DeletionURL != ""
}

// Criteria selects which records are eligible for remote deletion.
type Criteria struct {
	Host   string
	Cutoff time.Time // records must be uploaded strictly after this instant
}

// RateLimit is the quota information returned by the remote host, kept verbatim.
type RateLimit struct {
	Remaining string `json:"remaining"`
	Limit     string `json:"limit"`
	Reset     string `json:"reset"`
}

// DeletionOutcome holds the result of one deletion request.
type DeletionOutcome struct {
	Endpoint   string     `json:"endpoint"`
	Succeeded  bool       `json:"succeeded"`
	StatusCode int        `json:"status_code,omitempty"` // 0 when the request never got a response
	RateLimit  *RateLimit `json:"rate_limit,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RunResult summarizes a complete purge run.
type RunResult struct {
	RunID         string
	Path          string
	Criteria      Criteria
	Decoded       int
	Selected      []string
	Outcomes      []DeletionOutcome
	Succeeded     int
	Failed        int
	NothingToDo   bool
	BatchRejected *BatchTooLargeError
	DryRun        bool
	LastRateLimit *RateLimit
	StartedAt     time.Time
	CompletedAt   time.Time
}
