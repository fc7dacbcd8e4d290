package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"schemematch/internal/scheme/catalog"
	"schemematch/pkg/platform/sentinel"
)

// FileSource reads the catalog from a YAML or JSON file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

// Load rereads the file on every call so edits are picked up on refresh.
func (s *FileSource) Load(_ context.Context) (*catalog.Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog file %s: %w", s.path, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read catalog file %s: %w", s.path, err)
	}
	return decodeDocument(raw)
}
