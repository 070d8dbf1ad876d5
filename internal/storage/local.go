package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Local stores uploads in a directory on disk.
type Local struct {
	dir    string
	logger *slog.Logger
}

func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload folder is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload folder: %w", err)
	}
	return &Local{dir: dir, logger: logger}, nil
}

func (l *Local) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	path := filepath.Join(l.dir, name)
	// O_EXCL: generated names never overwrite an earlier upload
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	l.logger.Debug("storage.local.saved", "path", path, "bytes", len(data))
	return path, nil
}

func (l *Local) Read(_ context.Context, location string) ([]byte, error) {
	if err := l.owns(location); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	return b, err
}

// Delete removes a stored upload; deleting a missing file is not an error.
func (l *Local) Delete(_ context.Context, location string) error {
	if err := l.owns(location); err != nil {
		return err
	}
	if err := os.Remove(location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", location, err)
	}
	l.logger.Debug("storage.local.deleted", "path", location)
	return nil
}

func (l *Local) owns(location string) error {
	rel, err := filepath.Rel(l.dir, location)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.Base(rel) != rel {
		return fmt.Errorf("location %q is outside the upload folder", location)
	}
	return nil
}
