package service

import (
	"strings"

	"github.com/google/uuid"

	"sdnscreen/internal/sdn/models"
	dErrors "sdnscreen/pkg/domain-errors"
)

// Query bounds.
const (
	DefaultThreshold      = 4
	MaxThreshold          = 10
	DefaultLimit          = 20
	MaxLimit              = 100
	DefaultLimitPerEntity = 5
	MaxCandidates         = 50
)

// ScreenRequest is a fuzzy screen of one name. Nil Threshold and Limit take
// the defaults.
type ScreenRequest struct {
	Name      string
	Threshold *int
	Limit     *int
}

// screenQuery is a validated ScreenRequest.
type screenQuery struct {
	name      string
	threshold int
	limit     int
}

func (r ScreenRequest) normalize() (screenQuery, error) {
	q := screenQuery{
		name:      strings.TrimSpace(r.Name),
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
	}
	if q.name == "" {
		return q, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Threshold != nil {
		q.threshold = *r.Threshold
	}
	if q.threshold < 0 || q.threshold > MaxThreshold {
		return q, dErrors.New(dErrors.CodeValidation, "threshold must be between 0 and 10")
	}
	if r.Limit != nil {
		q.limit = *r.Limit
	}
	if q.limit < 1 || q.limit > MaxLimit {
		return q, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 100")
	}
	return q, nil
}

// Hit is one matched name with the public fields of its record.
type Hit struct {
	EntryID          int64
	SDNType          string
	EntityType       models.EntityType
	PrimaryName      string
	MatchedName      string
	MatchedPrimary   bool
	MatchScore       int
	EditDistance     int
	Programs         []string
	LegalAuthorities []string
	DatesOfBirth     []string
	Nationalities    []string
}

type ScreenResult struct {
	Query           string
	Threshold       int
	Limit           int
	SnapshotID      uuid.UUID
	PublicationDate string
	Hits            []Hit
}

// Candidate is a name to screen from a document, with an optional entity
// type hint.
type Candidate struct {
	Name       string
	EntityType string
}

// DocumentRequest screens every candidate independently. When Candidates is
// empty, Text is handed to the configured Extractor.
type DocumentRequest struct {
	Candidates     []Candidate
	Text           string
	Threshold      *int
	LimitPerEntity *int
}

type CandidateResult struct {
	Candidate Candidate
	IsMatch   bool
	Hits      []Hit
}

type DocumentResult struct {
	Candidates      []Candidate
	Results         []CandidateResult
	DocumentClear   bool
	TotalMatches    int
	SnapshotID      uuid.UUID
	PublicationDate string
}
