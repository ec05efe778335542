// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package artifact manages the outputs of a pipeline run: a local run
// directory for files written during the run, and a blob store the
// directory is uploaded to afterwards.
package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adxyz/ctr/pkg/log"
)

// Artifact is one run's output directory. The key prefix is
// <jobType>/<version> and the same layout is mirrored into the blob
// store on upload.
type Artifact struct {
	Version string
	JobType string

	keyPrefix string
	dirPath   string
}

// New creates the run directory under rootDir. An empty rootDir
// defaults to ./artifact.
func New(version, jobType, rootDir string) (*Artifact, error) {
	if rootDir == "" {
		rootDir = "artifact"
	}
	keyPrefix := jobType + "/" + version
	dirPath := filepath.Join(rootDir, filepath.FromSlash(keyPrefix))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dirPath, err)
	}
	return &Artifact{
		Version:   version,
		JobType:   jobType,
		keyPrefix: keyPrefix,
		dirPath:   dirPath,
	}, nil
}

// FilePath returns the path of a file inside the run directory.
func (a *Artifact) FilePath(name string) string {
	return filepath.Join(a.dirPath, name)
}

// KeyPrefix returns the blob key prefix for this run.
func (a *Artifact) KeyPrefix() string {
	return a.keyPrefix
}

// Dir returns the run directory path.
func (a *Artifact) Dir() string {
	return a.dirPath
}

// WriteFile writes a file into the run directory.
func (a *Artifact) WriteFile(name string, data []byte) error {
	path := a.FilePath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact file %s: %w", path, err)
	}
	return nil
}

// Upload copies every file in the run directory into the blob store
// under the run's key prefix. Upload is best effort: a failed file is
// logged and skipped, matching how run outputs are treated as
// diagnostics rather than pipeline state.
func (a *Artifact) Upload(blobs *Blobs, logger log.Logger) {
	if logger == nil {
		logger = log.NoOp()
	}
	err := filepath.WalkDir(a.dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(a.dirPath, path)
		if err != nil {
			return err
		}
		key := a.keyPrefix + "/" + filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("failed to read artifact file", "path", path, "error", err)
			return nil
		}
		if err := blobs.Put(key, data); err != nil {
			logger.Warn("failed to upload artifact file", "key", key, "error", err)
			return nil
		}
		logger.Info("uploaded artifact file", "key", key, "bytes", len(data))
		return nil
	})
	if err != nil {
		logger.Warn("artifact upload walk failed", "dir", a.dirPath, "error", err)
	}
}
