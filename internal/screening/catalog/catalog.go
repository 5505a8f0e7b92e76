// Package catalog holds the snapshot that screening reads from. A View is
// immutable; refreshing swaps in a new View so in-flight queries keep the one
// they started with.
package catalog

import (
	"sync/atomic"

	"sdnscreen/internal/screening/index"
	"sdnscreen/internal/sdn/models"
)

// View is one loaded snapshot with its name index and entry lookup.
type View struct {
	Info    models.SnapshotInfo
	Records []models.Record
	Index   *index.Index
	byID    map[int64]int
}

// NewView indexes snap. When entry IDs repeat, the first record wins.
func NewView(snap *models.Snapshot) *View {
	v := &View{
		Info:    snap.Info(),
		Records: snap.Records,
		Index:   index.Build(snap.Records),
		byID:    make(map[int64]int, len(snap.Records)),
	}
	for i := range snap.Records {
		if _, ok := v.byID[snap.Records[i].EntryID]; !ok {
			v.byID[snap.Records[i].EntryID] = i
		}
	}
	return v
}

// Entry returns the record for entryID. The record is shared; callers must
// not modify it.
func (v *View) Entry(entryID int64) (*models.Record, bool) {
	i, ok := v.byID[entryID]
	if !ok {
		return nil, false
	}
	return &v.Records[i], true
}

// Record returns the record at a position taken from an index name.
func (v *View) Record(position int) *models.Record {
	return &v.Records[position]
}

type Catalog struct {
	current atomic.Pointer[View]
}

func New() *Catalog {
	return &Catalog{}
}

// Current returns the active view, or nil before the first load.
func (c *Catalog) Current() *View {
	return c.current.Load()
}

// Replace indexes snap and makes it the active view.
func (c *Catalog) Replace(snap *models.Snapshot) *View {
	v := NewView(snap)
	c.current.Store(v)
	return v
}
