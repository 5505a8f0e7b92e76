package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is one published, complete record set. A new snapshot replaces the
// previous one as a whole.
type Snapshot struct {
	ID              uuid.UUID `json:"id"`
	PublicationDate string    `json:"publication_date,omitempty"`
	IngestedAt      time.Time `json:"ingested_at"`
	SourceURL       string    `json:"source_url,omitempty"`
	Records         []Record  `json:"records"`
}

// SnapshotInfo describes a snapshot without its records.
type SnapshotInfo struct {
	ID              uuid.UUID `json:"id"`
	PublicationDate string    `json:"publication_date,omitempty"`
	IngestedAt      time.Time `json:"ingested_at"`
	SourceURL       string    `json:"source_url,omitempty"`
	RecordCount     int       `json:"record_count"`
}

func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:              s.ID,
		PublicationDate: s.PublicationDate,
		IngestedAt:      s.IngestedAt,
		SourceURL:       s.SourceURL,
		RecordCount:     len(s.Records),
	}
}
