// Package ports defines the interfaces the scheme module consumes from
// infrastructure. Adapters live in store and in pkg/platform/audit.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"schemematch/internal/scheme/catalog"
	"schemematch/pkg/platform/audit"
)

// AuditPublisher emits audit events for matching and catalog operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CatalogSource loads the full catalog document from a backing store.
type CatalogSource interface {
	// Name labels the source in logs, metrics and snapshots.
	Name() string
	Load(ctx context.Context) (*catalog.Document, error)
}

// CatalogCache is a source that can also store the last known good document.
type CatalogCache interface {
	CatalogSource
	Save(ctx context.Context, doc *catalog.Document) error
}
