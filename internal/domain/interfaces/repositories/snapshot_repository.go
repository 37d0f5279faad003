// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"
	"time"

	"github.com/ochairo/slime/internal/domain/entities"
)

// Snapshot is a cached copy of a list fetch
type Snapshot[T any] struct {
	Items     []T
	FetchedAt time.Time
}

// SnapshotRepository caches the last authoritative list fetches for offline reads
type SnapshotRepository interface {
	// SaveFindings stores the finding list snapshot
	SaveFindings(ctx context.Context, findings []entities.Finding) error

	// LoadFindings returns the last stored finding list, or a NotFound error
	LoadFindings(ctx context.Context) (*Snapshot[entities.Finding], error)

	// SaveProjects stores the project list snapshot
	SaveProjects(ctx context.Context, projects []entities.Project) error

	// LoadProjects returns the last stored project list, or a NotFound error
	LoadProjects(ctx context.Context) (*Snapshot[entities.Project], error)

	// Close releases the underlying storage
	Close() error
}
