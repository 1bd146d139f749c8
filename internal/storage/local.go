// Package storage manages the local upload and output trees. Uploads
// are content-addressed: the stored filename is the SHA-256 of the
// file content, so duplicate uploads share a single stored file.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hlspress/hlspress/internal/config"
)

// Local stores uploads and transcoding outputs on the local filesystem
type Local struct {
	uploadDir string
	outputDir string
}

// New creates the storage trees if they do not exist
func New(cfg config.StorageConfig) (*Local, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return &Local{
		uploadDir: cfg.UploadDir,
		outputDir: cfg.OutputDir,
	}, nil
}

// Store writes an upload into the upload tree under its content hash,
// keeping the original extension. If a file with the same content was
// stored before, the existing copy is reused; a duplicate upload is
// not an error.
func (s *Local) Store(r io.Reader, originalName string) (string, error) {
	tmp, err := os.CreateTemp(s.uploadDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	_, err = io.Copy(tmp, io.TeeReader(r, hasher))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	storedFile := hex.EncodeToString(hasher.Sum(nil)) + filepath.Ext(originalName)
	finalPath := filepath.Join(s.uploadDir, storedFile)

	if _, err := os.Stat(finalPath); err == nil {
		// Same content already stored.
		os.Remove(tmpPath)
		return storedFile, nil
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return storedFile, nil
}

// InputPath returns the absolute-or-relative path of a stored upload
func (s *Local) InputPath(storedFile string) string {
	return filepath.Join(s.uploadDir, storedFile)
}

// OutputDir returns the per-video output directory path
func (s *Local) OutputDir(videoID int64) string {
	return filepath.Join(s.outputDir, strconv.FormatInt(videoID, 10))
}

// EnsureOutputDir creates the per-video output directory if needed
func (s *Local) EnsureOutputDir(videoID int64) (string, error) {
	dir := s.OutputDir(videoID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return dir, nil
}

// OutputRoot returns the root of the output tree, for static serving
func (s *Local) OutputRoot() string {
	return s.outputDir
}
