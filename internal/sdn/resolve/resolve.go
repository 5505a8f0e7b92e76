// Package resolve builds the shared-object maps that parties reference by ID:
// locations, identity documents and per-profile sanctions assignments.
//
// Builders are pure. A malformed object is skipped and reported as a warning;
// it never fails the run.
package resolve

import (
	"context"

	"golang.org/x/sync/errgroup"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
)

// Shared is the frozen set of shared-object maps for one run.
type Shared struct {
	locations  map[string]models.Location
	documents  map[string]models.IDDocument
	byIdentity map[string][]string
	sanctions  map[string]models.SanctionsAssignment
}

// NewShared wraps prebuilt maps. Used by tests and by BuildAll.
func NewShared(
	locations map[string]models.Location,
	documents map[string]models.IDDocument,
	byIdentity map[string][]string,
	sanctions map[string]models.SanctionsAssignment,
) *Shared {
	return &Shared{locations: locations, documents: documents, byIdentity: byIdentity, sanctions: sanctions}
}

func (s *Shared) Location(id string) models.Maybe[models.Location] {
	if loc, ok := s.locations[id]; ok {
		return models.Some(loc)
	}
	return models.None[models.Location]()
}

func (s *Shared) Document(id string) models.Maybe[models.IDDocument] {
	if d, ok := s.documents[id]; ok {
		return models.Some(d)
	}
	return models.None[models.IDDocument]()
}

// IdentityDocuments returns the IDs of documents linked to an identity, in
// source order.
func (s *Shared) IdentityDocuments(identityID string) []string {
	return s.byIdentity[identityID]
}

// Sanctions returns the assignment for a profile. A copy is returned so
// records never share slices with the map.
func (s *Shared) Sanctions(profileID string) models.Maybe[models.SanctionsAssignment] {
	a, ok := s.sanctions[profileID]
	if !ok {
		return models.None[models.SanctionsAssignment]()
	}
	return models.Some(models.SanctionsAssignment{
		Programs:         append([]string(nil), a.Programs...),
		LegalAuthorities: append([]string(nil), a.LegalAuthorities...),
		Remarks:          a.Remarks,
	})
}

// Counts reports the size of each map.
func (s *Shared) Counts() (locations, documents, sanctions int) {
	return len(s.locations), len(s.documents), len(s.sanctions)
}

// BuildAll runs the three builders concurrently. Warnings are returned in a
// fixed order: locations, documents, sanctions.
func BuildAll(ctx context.Context, doc *source.Document, lookups *models.Lookups) (*Shared, []models.Warning, error) {
	var (
		locations  map[string]models.Location
		documents  map[string]models.IDDocument
		byIdentity map[string][]string
		sanctions  map[string]models.SanctionsAssignment
	)
	var locWarn, docWarn, sWarn []models.Warning

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		locations, locWarn = Locations(doc.Locations, lookups)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		documents, byIdentity, docWarn = Documents(doc.IDRegDocuments, lookups)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sanctions, sWarn = Sanctions(doc.SanctionsEntries, lookups)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	warnings := make([]models.Warning, 0, len(locWarn)+len(docWarn)+len(sWarn))
	warnings = append(warnings, locWarn...)
	warnings = append(warnings, docWarn...)
	warnings = append(warnings, sWarn...)
	return NewShared(locations, documents, byIdentity, sanctions), warnings, nil
}
