package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/pkg/platform/sentinel"
)

var (
	metaBucket    = []byte("meta")
	recordsBucket = []byte("records")
	entriesBucket = []byte("entries")
	infoKey       = []byte("info")
)

// Bolt keeps the active snapshot in a single bbolt file. Publish writes a
// fresh file beside the target and renames it into place, so a reader opens
// either the old file or the new one.
type Bolt struct {
	path string
	mu   sync.Mutex // serializes Publish
}

func NewBolt(path string) *Bolt {
	return &Bolt{path: path}
}

func (b *Bolt) Publish(_ context.Context, snap *models.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := b.path + ".tmp-" + snap.ID.String()
	if err := writeBoltSnapshot(tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("swap snapshot file: %w", err)
	}
	return nil
}

func writeBoltSnapshot(path string, snap *models.Snapshot) error {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}

	err = db.Update(func(btx *bolt.Tx) error {
		meta, err := btx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		info, err := json.Marshal(snap.Info())
		if err != nil {
			return err
		}
		if err := meta.Put(infoKey, info); err != nil {
			return err
		}

		records, err := btx.CreateBucket(recordsBucket)
		if err != nil {
			return err
		}
		entries, err := btx.CreateBucket(entriesBucket)
		if err != nil {
			return err
		}
		records.FillPercent = 1.0
		for i := range snap.Records {
			data, err := json.Marshal(&snap.Records[i])
			if err != nil {
				return fmt.Errorf("encode record %d: %w", snap.Records[i].EntryID, err)
			}
			pos := u64(uint64(i))
			if err := records.Put(pos, data); err != nil {
				return err
			}
			if err := entries.Put(u64(uint64(snap.Records[i].EntryID)), pos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	return nil
}

// view opens the active file read-only for the duration of fn.
func (b *Bolt) view(fn func(btx *bolt.Tx) error) error {
	if _, err := os.Stat(b.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sentinel.ErrNoSnapshot
		}
		return fmt.Errorf("stat snapshot file: %w", err)
	}
	db, err := bolt.Open(b.path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer db.Close()
	return db.View(fn)
}

func readInfo(btx *bolt.Tx) (models.SnapshotInfo, error) {
	var info models.SnapshotInfo
	meta := btx.Bucket(metaBucket)
	if meta == nil {
		return info, sentinel.ErrNoSnapshot
	}
	raw := meta.Get(infoKey)
	if raw == nil {
		return info, sentinel.ErrNoSnapshot
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, fmt.Errorf("decode snapshot info: %w", err)
	}
	return info, nil
}

func (b *Bolt) Load(_ context.Context) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := b.view(func(btx *bolt.Tx) error {
		info, err := readInfo(btx)
		if err != nil {
			return err
		}
		snap = &models.Snapshot{
			ID:              info.ID,
			PublicationDate: info.PublicationDate,
			IngestedAt:      info.IngestedAt,
			SourceURL:       info.SourceURL,
			Records:         make([]models.Record, 0, info.RecordCount),
		}
		records := btx.Bucket(recordsBucket)
		if records == nil {
			return nil
		}
		return records.ForEach(func(_, v []byte) error {
			var rec models.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			snap.Records = append(snap.Records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (b *Bolt) ActiveID(_ context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := b.view(func(btx *bolt.Tx) error {
		info, err := readInfo(btx)
		id = info.ID
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (b *Bolt) Get(_ context.Context, entryID int64) (*models.Record, error) {
	var rec models.Record
	err := b.view(func(btx *bolt.Tx) error {
		entries, records := btx.Bucket(entriesBucket), btx.Bucket(recordsBucket)
		if entries == nil || records == nil {
			return sentinel.ErrNoSnapshot
		}
		pos := entries.Get(u64(uint64(entryID)))
		if pos == nil {
			return sentinel.ErrNotFound
		}
		raw := records.Get(pos)
		if raw == nil {
			return sentinel.ErrNotFound
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
