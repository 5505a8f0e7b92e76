package handler

import (
	"time"

	"sdnscreen/internal/screening/service"
)

// HitResponse is one matched name in a screening response.
type HitResponse struct {
	EntryID          int64    `json:"entry_id"`
	SDNType          string   `json:"sdn_type,omitempty"`
	EntityType       string   `json:"entity_type"`
	PrimaryName      string   `json:"primary_name,omitempty"`
	MatchedName      string   `json:"matched_name"`
	MatchedPrimary   bool     `json:"matched_primary"`
	MatchScore       int      `json:"match_score"`
	EditDistance     int      `json:"edit_distance"`
	Programs         []string `json:"programs"`
	LegalAuthorities []string `json:"legal_authorities"`
	DatesOfBirth     []string `json:"dates_of_birth"`
	Nationalities    []string `json:"nationalities"`
}

// ScreenResponse is the HTTP response for GET /screen.
type ScreenResponse struct {
	Query           string        `json:"query"`
	Threshold       int           `json:"threshold"`
	Limit           int           `json:"limit"`
	TotalHits       int           `json:"total_hits"`
	SnapshotID      string        `json:"snapshot_id"`
	PublicationDate string        `json:"publication_date,omitempty"`
	Results         []HitResponse `json:"results"`
}

type ExtractedEntity struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type,omitempty"`
}

type EntityScreenResult struct {
	Entity     string        `json:"entity"`
	EntityType string        `json:"entity_type,omitempty"`
	IsMatch    bool          `json:"is_match"`
	Hits       []HitResponse `json:"hits"`
}

// DocumentScreenResponse is the HTTP response for POST /screen/document.
type DocumentScreenResponse struct {
	EntitiesExtracted      []ExtractedEntity    `json:"entities_extracted"`
	ScreeningResults       []EntityScreenResult `json:"screening_results"`
	DocumentClear          bool                 `json:"document_clear"`
	TotalEntitiesExtracted int                  `json:"total_entities_extracted"`
	TotalMatches           int                  `json:"total_matches"`
	SnapshotID             string               `json:"snapshot_id"`
	PublicationDate        string               `json:"publication_date,omitempty"`
}

type HealthResponse struct {
	Status          string     `json:"status"`
	SnapshotID      string     `json:"snapshot_id,omitempty"`
	PublicationDate string     `json:"publication_date,omitempty"`
	IngestedAt      *time.Time `json:"ingested_at,omitempty"`
	Records         int        `json:"records,omitempty"`
}

func FromScreenResult(result *service.ScreenResult) *ScreenResponse {
	return &ScreenResponse{
		Query:           result.Query,
		Threshold:       result.Threshold,
		Limit:           result.Limit,
		TotalHits:       len(result.Hits),
		SnapshotID:      result.SnapshotID.String(),
		PublicationDate: result.PublicationDate,
		Results:         fromHits(result.Hits),
	}
}

func FromDocumentResult(result *service.DocumentResult) *DocumentScreenResponse {
	resp := &DocumentScreenResponse{
		EntitiesExtracted:      make([]ExtractedEntity, 0, len(result.Candidates)),
		ScreeningResults:       make([]EntityScreenResult, 0, len(result.Results)),
		DocumentClear:          result.DocumentClear,
		TotalEntitiesExtracted: len(result.Candidates),
		TotalMatches:           result.TotalMatches,
		SnapshotID:             result.SnapshotID.String(),
		PublicationDate:        result.PublicationDate,
	}
	for _, c := range result.Candidates {
		resp.EntitiesExtracted = append(resp.EntitiesExtracted, ExtractedEntity{Name: c.Name, EntityType: c.EntityType})
	}
	for _, r := range result.Results {
		resp.ScreeningResults = append(resp.ScreeningResults, EntityScreenResult{
			Entity:     r.Candidate.Name,
			EntityType: r.Candidate.EntityType,
			IsMatch:    r.IsMatch,
			Hits:       fromHits(r.Hits),
		})
	}
	return resp
}

// fromHits never returns nil so lists encode as [].
func fromHits(hits []service.Hit) []HitResponse {
	out := make([]HitResponse, 0, len(hits))
	for _, h := range hits {
		out = append(out, HitResponse{
			EntryID:          h.EntryID,
			SDNType:          h.SDNType,
			EntityType:       string(h.EntityType),
			PrimaryName:      h.PrimaryName,
			MatchedName:      h.MatchedName,
			MatchedPrimary:   h.MatchedPrimary,
			MatchScore:       h.MatchScore,
			EditDistance:     h.EditDistance,
			Programs:         orEmpty(h.Programs),
			LegalAuthorities: orEmpty(h.LegalAuthorities),
			DatesOfBirth:     orEmpty(h.DatesOfBirth),
			Nationalities:    orEmpty(h.Nationalities),
		})
	}
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
