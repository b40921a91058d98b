// Package history decodes the repaired ShareX history log and selects the
// uploads eligible for remote deletion.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"sharexpurge/internal/core/domain"
)

// DefaultWindow is the rolling purge window used when no cutoff is given.
const DefaultWindow = 24 * time.Hour

// object is one decoded JSON object. Keys are looked up exactly;
// encoding/json struct decoding would also accept "host" for "Host".
type object map[string]json.RawMessage

// Decode parses a repaired history payload into records. Any structural
// error or missing required field fails the whole decode with ErrParse.
func Decode(raw []byte) ([]domain.HistoryRecord, error) {
	var entries []object
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	records := make([]domain.HistoryRecord, 0, len(entries))
	for i, e := range entries {
		rec, err := e.record()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrParse, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (o object) record() (domain.HistoryRecord, error) {
	if o == nil {
		return domain.HistoryRecord{}, fmt.Errorf("record is null")
	}
	var (
		rec  domain.HistoryRecord
		tags object
	)
	fields := []struct {
		key      string
		dst      any
		required bool
	}{
		{"FileName", &rec.FileName, true},
		{"FilePath", &rec.FilePath, false},
		{"DateTime", &rec.UploadedAt, true},
		{"Type", &rec.Kind, true},
		{"Host", &rec.Host, true},
		{"Tags", &tags, false},
		{"URL", &rec.URL, false},
		{"ThumbnailURL", &rec.ThumbnailURL, false},
		{"DeletionURL", &rec.DeletionURL, false},
	}
	for _, f := range fields {
		if err := o.field(f.key, f.dst, f.required); err != nil {
			return domain.HistoryRecord{}, err
		}
	}

	if tags != nil {
		rec.Tags = &domain.Tags{}
		if err := tags.field("WindowTitle", &rec.Tags.WindowTitle, false); err != nil {
			return domain.HistoryRecord{}, fmt.Errorf("Tags: %w", err)
		}
		if err := tags.field("ProcessName", &rec.Tags.ProcessName, true); err != nil {
			return domain.HistoryRecord{}, fmt.Errorf("Tags: %w", err)
		}
	}
	return rec, nil
}

// field decodes o[key] into dst. Absent keys and JSON null count as missing.
func (o object) field(key string, dst any, required bool) error {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if required {
			return fmt.Errorf("missing field %s", key)
		}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s: %v", key, err)
	}
	return nil
}

// Select returns the deletion endpoints of every record uploaded to
// c.Host strictly after c.Cutoff that has a non-empty DeletionURL.
// Input order is preserved.
func Select(records []domain.HistoryRecord, c domain.Criteria) []string {
	endpoints := make([]string, 0)
	for _, r := range records {
		if Eligible(r, c) {
			endpoints = append(endpoints, r.DeletionURL)
		}
	}
	return endpoints
}

// Eligible reports whether a single record matches c.
func Eligible(r domain.HistoryRecord, c domain.Criteria) bool {
	return r.Deletable() && r.Host == c.Host && r.UploadedAt.After(c.Cutoff)
}

// DefaultCutoff returns the start of the rolling window ending at now.
func DefaultCutoff(now time.Time) time.Time {
	return now.Add(-DefaultWindow)
}

// Unbounded is the cutoff that selects the whole history.
func Unbounded() time.Time {
	return time.Unix(0, 0).UTC()
}
