// Package store persists the single model slot and accumulated feedback.
package store

import (
	"context"
	"errors"
	"os"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/fileutils"
)

// FileModelStore keeps the artifact as a YAML file. Saves overwrite the
// whole file through a temporary file and rename.
type FileModelStore struct {
	Path string
}

// NewFileModelStore creates a store writing to path.
func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{Path: path}
}

// Location returns the artifact path.
func (s *FileModelStore) Location() string {
	return s.Path
}

// Save writes a to disk, replacing any previous artifact.
func (s *FileModelStore) Save(ctx context.Context, a *classifier.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeArtifact(a)
	if err != nil {
		return &ArtifactWriteError{Location: s.Path, Err: err}
	}

	if err := fileutils.WriteFileAtomic(s.Path, data); err != nil {
		return &ArtifactWriteError{Location: s.Path, Err: err}
	}
	return nil
}

// Load reads the artifact. A missing file yields ErrArtifactNotFound.
func (s *FileModelStore) Load(ctx context.Context) (*classifier.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, &CorruptArtifactError{Location: s.Path, Err: err}
	}
	return decodeArtifact(s.Path, data)
}
