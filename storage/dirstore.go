package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
)

// DirStore stores blobs under a local directory. It serves development and
// tests where no bucket is available.
type DirStore struct {
	dir string
	log *slog.Logger
}

// NewDirStore creates the directory if necessary.
func NewDirStore(dir string, logger *slog.Logger) (*DirStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create blob directory %q: %w", dir, err)
	}
	return &DirStore{dir: dir, log: logger}, nil
}

// Put writes the blob into the directory, returning a file url.
func (d *DirStore) Put(ctx context.Context, instructionRef, fileName string, contents io.Reader) (string, string, error) {
	name := blobName(instructionRef, fileName)
	filePath := filepath.Join(d.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return "", "", fmt.Errorf("could not create blob path %q: %w", filePath, err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("could not create blob file %q: %w", filePath, err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := io.Copy(f, contents); err != nil {
		return "", "", fmt.Errorf("failed to write blob %q: %w", filePath, err)
	}

	abs, err := filepath.Abs(filePath)
	if err != nil {
		abs = filePath
	}
	fileURL := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	d.log.Debug("blob stored", "dir", d.dir, "name", name)
	return name, fileURL.String(), nil
}
