package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/pkg/platform/sentinel"
	"sdnscreen/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const (
	insertSnapshotSQL = `INSERT INTO sdn_snapshots (id, publication_date, ingested_at, source_url, record_count, active)
VALUES ($1, $2, $3, $4, $5, FALSE)`
	// The unique index on active is checked row by row, so the old snapshot
	// is cleared before the new one is set.
	deactivateSnapshotsSQL = `UPDATE sdn_snapshots SET active = FALSE WHERE active`
	activateSnapshotSQL    = `UPDATE sdn_snapshots SET active = TRUE WHERE id = $1`
	pruneSnapshotsSQL      = `DELETE FROM sdn_snapshots WHERE id <> $1`
	activeSnapshotSQL      = `SELECT id, publication_date, ingested_at, source_url FROM sdn_snapshots WHERE active`
	snapshotRecordsSQL     = `SELECT record FROM sdn_records WHERE snapshot_id = $1 ORDER BY position`
	activeIDSQL            = `SELECT id FROM sdn_snapshots WHERE active`
	activeRecordSQL        = `SELECT r.record FROM sdn_records r
JOIN sdn_snapshots s ON s.id = r.snapshot_id
WHERE s.active AND r.entry_id = $1`
)

// Postgres stores snapshots in sdn_snapshots / sdn_records. Publish runs in
// one transaction, so the active flag moves only after every record is in.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sdn schema: %w", err)
	}
	return nil
}

func (p *Postgres) Publish(ctx context.Context, snap *models.Snapshot) error {
	return tx.Run(ctx, p.db, func(ctx context.Context, t *sql.Tx) error {
		if _, err := t.ExecContext(ctx, insertSnapshotSQL,
			snap.ID, snap.PublicationDate, snap.IngestedAt, snap.SourceURL, len(snap.Records),
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		if err := copyRecords(ctx, t, snap); err != nil {
			return err
		}
		if _, err := t.ExecContext(ctx, deactivateSnapshotsSQL); err != nil {
			return fmt.Errorf("deactivate snapshots: %w", err)
		}
		if _, err := t.ExecContext(ctx, activateSnapshotSQL, snap.ID); err != nil {
			return fmt.Errorf("activate snapshot: %w", err)
		}
		if _, err := t.ExecContext(ctx, pruneSnapshotsSQL, snap.ID); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		return nil
	})
}

func copyRecords(ctx context.Context, t *sql.Tx, snap *models.Snapshot) error {
	stmt, err := t.PrepareContext(ctx, pq.CopyIn("sdn_records", "snapshot_id", "position", "entry_id", "record"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close()

	for i := range snap.Records {
		data, err := json.Marshal(&snap.Records[i])
		if err != nil {
			return fmt.Errorf("encode record %d: %w", snap.Records[i].EntryID, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, i, snap.Records[i].EntryID, string(data)); err != nil {
			return fmt.Errorf("copy record %d: %w", snap.Records[i].EntryID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy: %w", err)
	}
	return nil
}

// loadTxOptions pins the header and the records to one snapshot of the
// database, so a concurrent Publish cannot prune the records in between.
var loadTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (p *Postgres) Load(ctx context.Context) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := tx.RunWith(ctx, p.db, loadTxOptions, func(ctx context.Context, t *sql.Tx) error {
		var err error
		snap, err = loadActive(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func loadActive(ctx context.Context, t *sql.Tx) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	err := t.QueryRowContext(ctx, activeSnapshotSQL).
		Scan(&snap.ID, &snap.PublicationDate, &snap.IngestedAt, &snap.SourceURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNoSnapshot
		}
		return nil, fmt.Errorf("load active snapshot: %w", err)
	}

	rows, err := t.QueryContext(ctx, snapshotRecordsSQL, snap.ID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec models.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return snap, nil
}

func (p *Postgres) ActiveID(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	if err := p.db.QueryRowContext(ctx, activeIDSQL).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, sentinel.ErrNoSnapshot
		}
		return uuid.Nil, fmt.Errorf("active snapshot id: %w", err)
	}
	return id, nil
}

func (p *Postgres) Get(ctx context.Context, entryID int64) (*models.Record, error) {
	var raw []byte
	if err := p.db.QueryRowContext(ctx, activeRecordSQL, entryID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get record %d: %w", entryID, err)
	}
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record %d: %w", entryID, err)
	}
	return &rec, nil
}
