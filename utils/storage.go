package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the allowed size.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotImage is returned when an upload does not sniff as an image.
	ErrNotImage = errors.New("file is not an image")
)

// FileStore keeps uploaded images in a single flat directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory served under /uploads.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the filesystem path of a stored file.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// SaveImage stores header under a fresh unique name and returns that name.
// The write is complete when SaveImage returns without error.
func (s *FileStore) SaveImage(header *multipart.FileHeader, maxSize int64) (string, error) {
	if header.Size > maxSize {
		return "", ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := NewUploadName(header.Filename)
	dst := s.Path(name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	// Enforce the limit by reading at most one byte past it
	lr := &io.LimitedReader{R: src, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if written > maxSize {
		_ = os.Remove(dst)
		return "", ErrFileTooLarge
	}
	return name, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *FileStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
