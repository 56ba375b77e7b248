// Package files stores uploaded chat attachments on local disk under
// server-generated names.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured size ceiling.
var ErrTooLarge = errors.New("file exceeds maximum upload size")

// StoredFile describes a file written to the storage directory.
type StoredFile struct {
	Name         string
	OriginalName string
	Size         int64
}

// Storage writes uploads to a directory with a per-file size ceiling. Names
// are generated so uploads never collide or escape the directory; only the
// original extension is preserved.
type Storage struct {
	dir     string
	maxSize int64
}

// NewStorage creates the storage directory if needed and returns a Storage
// enforcing the given size ceiling in bytes.
func NewStorage(dir string, maxSize int64) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Storage{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

// MaxSize returns the per-file size ceiling in bytes.
func (s *Storage) MaxSize() int64 {
	return s.maxSize
}

// Save streams the upload to disk under a generated name. Uploads larger
// than the ceiling are removed and rejected with ErrTooLarge.
func (s *Storage) Save(r io.Reader, originalName string) (*StoredFile, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	// Read one byte past the ceiling so oversized uploads are detectable
	// without buffering them fully.
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to close file: %w", closeErr)
	}
	if written > s.maxSize {
		_ = os.Remove(path)
		return nil, ErrTooLarge
	}

	return &StoredFile{
		Name:         name,
		OriginalName: originalName,
		Size:         written,
	}, nil
}
