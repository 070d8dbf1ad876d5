// Package ingest feeds files from the local filesystem into the submission workflow.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/forms-intake/constants"
	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/pipeline"
)

// Submitter is the part of the workflow ingestion drives.
type Submitter interface {
	Submit(ctx context.Context, up pipeline.Upload) (pipeline.Summary, error)
}

// Result is the per-file outcome.
type Result struct {
	Path    string            `json:"path"`
	Summary *pipeline.Summary `json:"summary,omitempty"`
	Err     string            `json:"error,omitempty"`
}

// Stats summarizes a directory run.
type Stats struct {
	Scanned   uint32 `json:"scanned"`
	Matched   uint32 `json:"matched"`
	Succeeded uint32 `json:"succeeded"`
	Failed    uint32 `json:"failed"`
}

var extContentTypes = map[string]string{
	"pdf":  constants.ContentTypePDF,
	"jpg":  constants.ContentTypeJPEG,
	"jpeg": constants.ContentTypeJPEG,
	"png":  constants.ContentTypePNG,
}

// ContentTypeFor maps a file extension onto the upload allowlist; "" when not accepted.
func ContentTypeFor(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return extContentTypes[ext]
}

// LoadFile reads path into an Upload, applying the same type rules as the HTTP surface.
func LoadFile(path string, maxSize int64) (pipeline.Upload, error) {
	ct := ContentTypeFor(path)
	if ct == "" {
		return pipeline.Upload{}, common.InvalidInputErrorf("unsupported file type %q", filepath.Ext(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return pipeline.Upload{}, common.InvalidInputErrorf("%s is %d bytes, limit is %d", path, info.Size(), maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	if sniffed := constants.NormalizeContentType(http.DetectContentType(data)); sniffed != ct {
		return pipeline.Upload{}, common.InvalidInputErrorf("%s looks like %s, not %s", path, sniffed, ct)
	}
	return pipeline.Upload{Filename: filepath.Base(path), ContentType: ct, Data: data}, nil
}

// File runs one local file through the workflow.
func File(ctx context.Context, sub Submitter, path string, maxSize int64) Result {
	up, err := LoadFile(path, maxSize)
	if err != nil {
		return Result{Path: path, Err: err.Error()}
	}
	sum, err := sub.Submit(ctx, up)
	if err != nil {
		return Result{Path: path, Err: err.Error()}
	}
	return Result{Path: path, Summary: &sum}
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
