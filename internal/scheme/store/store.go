// Package store holds the catalog sources: a document on disk, rows in
// PostgreSQL, an object in S3, and the last known good copy in Redis.
package store

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"schemematch/internal/scheme/catalog"
)

// decodeDocument parses a YAML or JSON catalog document. YAML is a superset
// of JSON, so one decoder serves both.
func decodeDocument(raw []byte) (*catalog.Document, error) {
	var doc catalog.Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}
	return &doc, nil
}
