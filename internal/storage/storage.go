// Package storage keeps the original uploads. Names are always generated; client filenames never
// reach a path or object key.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/forms-intake/constants"
)

// ErrNotFound is returned by Read for an unknown location.
var ErrNotFound = errors.New("stored file not found")

type Store interface {
	// Save writes data under name and returns the location recorded as uploaded_file_path.
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, location string) ([]byte, error)
	Delete(ctx context.Context, location string) error
}

// ObjectName is "<uuid>.<ext>" with the extension taken from the validated content type.
func ObjectName(contentType string) string {
	ext := constants.ExtForContentType(contentType)
	if ext == "" {
		ext = "bin"
	}
	return uuid.New().String() + "." + ext
}
