package deleter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sharexpurge/internal/core/domain"
)

// Rate limit headers returned by the Imgur API on POST requests.
// Header lookup is case-insensitive, so the "Reset" spelling seen in
// some clients resolves to the same header.
const (
	HeaderRateRemaining = "X-Post-Rate-Limit-Remaining"
	HeaderRateLimit     = "X-Post-Rate-Limit-Limit"
	HeaderRateReset     = "X-Post-Rate-Limit-Reset"
)

// HTTPDeleter implements ports.Deleter by confirming deletion over HTTP.
type HTTPDeleter struct {
	client *http.Client
}

// NewHTTPDeleter creates a new HTTPDeleter. A zero timeout leaves the
// transport default in place.
func NewHTTPDeleter(timeout time.Duration) *HTTPDeleter {
	return &HTTPDeleter{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewHTTPDeleterWithClient creates an HTTPDeleter around an existing client.
func NewHTTPDeleterWithClient(client *http.Client) *HTTPDeleter {
	return &HTTPDeleter{client: client}
}

// Delete posts confirm=true to the deletion endpoint.
func (d *HTTPDeleter) Delete(ctx context.Context, endpoint string) domain.DeletionOutcome {
	outcome := domain.DeletionOutcome{Endpoint: endpoint}

	form := url.Values{"confirm": {"true"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to create request: %v", err)
		return outcome
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to send request: %v", err)
		return outcome
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused by the rest of the batch.
	_, _ = io.Copy(io.Discard, resp.Body)

	outcome.StatusCode = resp.StatusCode
	outcome.RateLimit = rateLimit(resp.Header)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		outcome.Succeeded = true
		return outcome
	}
	outcome.Error = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	return outcome
}

func rateLimit(h http.Header) *domain.RateLimit {
	remaining := h.Get(HeaderRateRemaining)
	limit := h.Get(HeaderRateLimit)
	reset := h.Get(HeaderRateReset)
	if remaining == "" && limit == "" && reset == "" {
		return nil
	}
	return &domain.RateLimit{Remaining: remaining, Limit: limit, Reset: reset}
}
