package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Local stores images on the filesystem under a single directory that
// the router also serves statically
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory, %w", err)
	}

	return &Local{Dir: dir}, nil
}

func (l *Local) Save(_ context.Context, r io.Reader, originalName string) (string, error) {
	name := storedName(originalName)

	f, err := os.Create(filepath.Join(l.Dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file, %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write image file, %w", err)
	}

	return name, nil
}

func (l *Local) Delete(_ context.Context, path string) {
	if path == "" {
		return
	}

	err := os.Remove(filepath.Join(l.Dir, filepath.Base(path)))
	if err != nil && !os.IsNotExist(err) {
		zap.L().Error("Failed to delete image file", zap.Error(err), zap.String("path", path))
	}
}
