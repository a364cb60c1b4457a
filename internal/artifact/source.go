// Package artifact loads the serialized model and encoder artifacts at
// process start and holds them as an immutable, read-only store for the
// lifetime of the process.
package artifact

import (
	"context"
	"fmt"
	"os"
)

// Source fetches a raw artifact by location. Locations are file paths for
// the filesystem source and object keys for the S3 source.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileSource reads artifacts from the local filesystem.
type FileSource struct{}

// NewFileSource creates a filesystem-backed artifact source.
func NewFileSource() FileSource {
	return FileSource{}
}

// Fetch reads the artifact file at path.
func (FileSource) Fetch(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return data, nil
}
