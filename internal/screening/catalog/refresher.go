package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/pkg/platform/sentinel"
)

// Source is the part of a snapshot store the refresher reads.
type Source interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	ActiveID(ctx context.Context) (uuid.UUID, error)
}

// Refresher keeps a Catalog in step with the active snapshot of a Source.
type Refresher struct {
	catalog  *Catalog
	source   Source
	interval time.Duration
	logger   *slog.Logger
	onLoad   func(*View)
}

type RefresherOption func(*Refresher)

func WithLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// WithOnLoad registers a callback run after each new view is installed.
func WithOnLoad(fn func(*View)) RefresherOption {
	return func(r *Refresher) {
		r.onLoad = fn
	}
}

func NewRefresher(catalog *Catalog, source Source, interval time.Duration, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		catalog:  catalog,
		source:   source,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh loads the active snapshot when it differs from the current view.
// It reports whether a new view was installed. No published snapshot is not
// an error.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	id, err := r.source.ActiveID(ctx)
	if errors.Is(err, sentinel.ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read active snapshot id: %w", err)
	}
	if cur := r.catalog.Current(); cur != nil && cur.Info.ID == id {
		return false, nil
	}

	snap, err := r.source.Load(ctx)
	if errors.Is(err, sentinel.ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	v := r.catalog.Replace(snap)
	r.logger.InfoContext(ctx, "snapshot loaded",
		"snapshot_id", v.Info.ID,
		"publication_date", v.Info.PublicationDate,
		"records", len(v.Records),
		"names", v.Index.Len(),
	)
	if r.onLoad != nil {
		r.onLoad(v)
	}
	return true, nil
}

// Start polls the source every interval until ctx is cancelled. Failed
// refreshes are logged and the current view stays active.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.WarnContext(ctx, "snapshot refresh failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
