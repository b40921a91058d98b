package historyfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"sharexpurge/internal/core/domain"
)

const (
	appDir   = "ShareX"
	fileName = "History.json"
)

// Reader implements ports.HistorySource for the local filesystem.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read loads the history log at path and repairs it into a JSON array.
// The source file is never modified.
func (r *Reader) Read(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	data, err := os.ReadFile(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPathNotFound, clean)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIO, clean, err)
	}
	return Repair(data), nil
}

// Repair wraps the concatenated object literals ShareX appends to its
// history file in a single pair of brackets. Separators between objects
// are not inserted; a history file with a missing comma stays invalid.
func Repair(raw []byte) []byte {
	out := make([]byte, 0, len(raw)+2)
	out = append(out, '[')
	out = append(out, raw...)
	return append(out, ']')
}

// DefaultPath returns <documents>/ShareX/History.json for the current user.
func DefaultPath() string {
	docs := xdg.UserDirs.Documents
	if docs == "" {
		docs = filepath.Join(xdg.Home, "Documents")
	}
	return filepath.Join(docs, appDir, fileName)
}
