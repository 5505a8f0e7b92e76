// Package denormalize turns one raw party plus the frozen Pass 1 maps into a
// self-contained Record.
//
// A Denormalizer only reads its maps, so one instance may serve any number of
// goroutines.
package denormalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/resolve"
	"sdnscreen/internal/sdn/source"
	pstrings "sdnscreen/pkg/platform/strings"
)

// ErrMissingEntryID rejects a party without a usable stable identifier.
var ErrMissingEntryID = errors.New("party has no stable entry id")

// RunMeta is stamped on every record of a run.
type RunMeta struct {
	PublicationDate string
	IngestedAt      time.Time
	SourceURL       string
}

type Denormalizer struct {
	lookups *models.Lookups
	shared  *resolve.Shared
	meta    RunMeta
}

func New(lookups *models.Lookups, shared *resolve.Shared, meta RunMeta) *Denormalizer {
	return &Denormalizer{lookups: lookups, shared: shared, meta: meta}
}

// Party denormalizes p. Resolution gaps degrade to absent fields and are
// returned as warnings; only a missing entry ID rejects the party.
func (d *Denormalizer) Party(p source.DistinctParty) (models.Record, []models.Warning, error) {
	ref := strings.TrimSpace(p.FixedRef)
	if ref == "" {
		return models.Record{}, nil, ErrMissingEntryID
	}
	entryID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return models.Record{}, nil, fmt.Errorf("%w: FixedRef %q", ErrMissingEntryID, ref)
	}

	b := &partyBuilder{
		d:       d,
		subject: ref,
		rec: models.Record{
			EntryID:            entryID,
			EntityType:         models.EntityUnknown,
			PublicationDate:    d.meta.PublicationDate,
			IngestionTimestamp: d.meta.IngestedAt,
			SourceURL:          d.meta.SourceURL,
		},
		seenLocations: map[string]struct{}{},
		seenDocuments: map[string]struct{}{},
	}

	for _, profile := range p.Profiles {
		b.profile(profile)
	}
	return b.finish(), b.warnings, nil
}

type partyBuilder struct {
	d        *Denormalizer
	subject  string
	rec      models.Record
	warnings []models.Warning

	seenLocations map[string]struct{}
	seenDocuments map[string]struct{}
	vessel        models.VesselInfo
	aircraft      models.AircraftInfo
	additional    []string
}

func (b *partyBuilder) warn(kind models.WarningKind, ref string) {
	b.warnings = append(b.warnings, models.Warning{Kind: kind, Subject: b.subject, Ref: ref})
}

func (b *partyBuilder) label(c models.Category, id string) (string, bool) {
	return b.d.lookups.Label(c, id).Get()
}

func (b *partyBuilder) profile(p source.Profile) {
	b.entityType(p.PartySubTypeID)

	if a, ok := b.d.shared.Sanctions(strings.TrimSpace(p.ID)).Get(); ok {
		b.rec.Programs = pstrings.AppendUnique(b.rec.Programs, a.Programs...)
		b.rec.LegalAuthorities = pstrings.AppendUnique(b.rec.LegalAuthorities, a.LegalAuthorities...)
		if a.Remarks != "" {
			b.rec.Remarks = a.Remarks
		}
	}

	for _, identity := range p.Identities {
		b.identity(identity)
	}
	for _, f := range p.Features {
		b.feature(f)
	}
	for _, identity := range p.Identities {
		for _, docID := range b.d.shared.IdentityDocuments(strings.TrimSpace(identity.ID)) {
			b.document(docID)
		}
	}
}

// entityType resolves the party subtype. "Unknown" subtypes fall back to the
// label of their parent party type (Individual, Entity).
func (b *partyBuilder) entityType(subtypeID string) {
	label, ok := b.label(models.CategoryPartySubType, subtypeID)
	if !ok {
		b.warn(models.WarnUnknownSubtype, "PartySubType "+subtypeID)
		return
	}
	if strings.EqualFold(label, "unknown") {
		if parent, ok := b.d.lookups.PartyTypeOf(subtypeID).Get(); ok {
			if partyLabel, ok := b.label(models.CategoryPartyType, parent); ok {
				label = partyLabel
			}
		}
	}
	b.rec.SDNType = label
	b.rec.EntityType = models.ParseEntityType(label)
}

func (b *partyBuilder) finish() models.Record {
	if !b.vessel.IsZero() && b.rec.EntityType == models.EntityVessel {
		v := b.vessel
		b.rec.VesselInfo = &v
	}
	if !b.aircraft.IsZero() && b.rec.EntityType == models.EntityAircraft {
		a := b.aircraft
		b.rec.AircraftInfo = &a
	}
	if len(b.additional) > 0 {
		b.rec.AdditionalSanctionsInfo = strings.Join(b.additional, "; ")
	}
	return b.rec
}
