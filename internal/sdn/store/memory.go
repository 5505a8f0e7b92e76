package store

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/pkg/platform/sentinel"
)

// Memory keeps the active snapshot in process. Publish swaps a pointer, so
// concurrent readers never block.
type Memory struct {
	current atomic.Pointer[memorySnapshot]
}

type memorySnapshot struct {
	snap *models.Snapshot
	byID map[int64]int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, snap *models.Snapshot) error {
	byID := make(map[int64]int, len(snap.Records))
	for i, r := range snap.Records {
		byID[r.EntryID] = i
	}
	m.current.Store(&memorySnapshot{snap: snap, byID: byID})
	return nil
}

func (m *Memory) Load(_ context.Context) (*models.Snapshot, error) {
	cur := m.current.Load()
	if cur == nil {
		return nil, sentinel.ErrNoSnapshot
	}
	return cur.snap, nil
}

func (m *Memory) ActiveID(_ context.Context) (uuid.UUID, error) {
	cur := m.current.Load()
	if cur == nil {
		return uuid.Nil, sentinel.ErrNoSnapshot
	}
	return cur.snap.ID, nil
}

func (m *Memory) Get(_ context.Context, entryID int64) (*models.Record, error) {
	cur := m.current.Load()
	if cur == nil {
		return nil, sentinel.ErrNoSnapshot
	}
	i, ok := cur.byID[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := cur.snap.Records[i]
	return &rec, nil
}
