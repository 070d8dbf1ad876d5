package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// Directory walks root, skips hidden entries if requested, and submits every accepted file in
// lexical order. Per-file failures are recorded and the walk continues.
func Directory(ctx context.Context, sub Submitter, root string, skipHidden bool, maxSize int64, logger *slog.Logger) ([]Result, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, Stats{}, errors.New("root path is required")
	}

	var results []Result
	var stats Stats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			stats.Scanned++
			results = append(results, Result{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if ContentTypeFor(path) == "" {
			return nil
		}
		stats.Matched++

		res := File(ctx, sub, path, maxSize)
		results = append(results, res)
		if res.Err != "" {
			stats.Failed++
			logger.Warn("ingest.file.failed", "path", path, "error", res.Err)
			return nil
		}
		stats.Succeeded++
		logger.Info("ingest.file.ok",
			"path", path,
			"ack_id", res.Summary.AcknowledgmentID,
			"status", res.Summary.Status,
		)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
