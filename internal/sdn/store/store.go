// Package store persists published snapshots. Every backend replaces the
// active snapshot as a whole: readers see either the previous complete
// snapshot or the new one, never a mix.
package store

import (
	"context"

	"github.com/google/uuid"

	"sdnscreen/internal/sdn/models"
)

// Store is the snapshot lifecycle shared by all backends.
//
// Load and ActiveID return sentinel.ErrNoSnapshot before the first publish.
// Get returns sentinel.ErrNotFound for an unknown entry, or ErrNoSnapshot when
// the backend can tell nothing was published.
type Store interface {
	Publish(ctx context.Context, snap *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
	ActiveID(ctx context.Context) (uuid.UUID, error)
	Get(ctx context.Context, entryID int64) (*models.Record, error)
}
