// Package storage handles saving and deleting uploaded post images
package storage

import (
	"context"
	"io"
	"path/filepath"
	"time"
)

type ImageStore interface {
	// Save writes the stream to durable storage under a generated,
	// collision-resistant name and returns the relative path
	Save(ctx context.Context, r io.Reader, originalName string) (string, error)

	// Delete is best-effort; failures are logged, never propagated
	Delete(ctx context.Context, path string)
}

// storedName prefixes a timestamp to the original file name so two
// uploads of the same file never collide
func storedName(originalName string) string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05.000") + "Z"
	return ts + "-" + filepath.Base(originalName)
}
