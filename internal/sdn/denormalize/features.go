package denormalize

import (
	"strings"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
	pstrings "sdnscreen/pkg/platform/strings"
)

type vesselField struct {
	key string
	set func(v *models.VesselInfo, value string)
}

// vesselFields is matched in order against the lowercased feature type.
var vesselFields = []vesselField{
	{"vessel call sign", func(v *models.VesselInfo, s string) { v.VesselCallSign = s }},
	{"vessel type", func(v *models.VesselInfo, s string) { v.VesselType = s }},
	{"vessel tonnage", func(v *models.VesselInfo, s string) { v.VesselTonnage = s }},
	{"gross registered tonnage", func(v *models.VesselInfo, s string) { v.VesselGRT = s }},
	{"vessel flag", func(v *models.VesselInfo, s string) { v.VesselFlag = s }},
	{"vessel owner", func(v *models.VesselInfo, s string) { v.VesselOwner = s }},
	{"mmsi", func(v *models.VesselInfo, s string) { v.VesselMMSI = s }},
	{"imo", func(v *models.VesselInfo, s string) { v.VesselIMO = s }},
}

type aircraftField struct {
	key string
	set func(a *models.AircraftInfo, value string)
}

// aircraftFields is ordered so the serial-number key wins over the plain
// manufacturer key it contains.
var aircraftFields = []aircraftField{
	{"aircraft construction number", func(a *models.AircraftInfo, s string) { a.AircraftSerial = s }},
	{"aircraft manufacturer's serial number", func(a *models.AircraftInfo, s string) { a.AircraftSerial = s }},
	{"aircraft model", func(a *models.AircraftInfo, s string) { a.AircraftType = s }},
	{"aircraft operator", func(a *models.AircraftInfo, s string) { a.AircraftOperator = s }},
	{"aircraft tail number", func(a *models.AircraftInfo, s string) { a.AircraftTailNumber = s }},
	{"aircraft type", func(a *models.AircraftInfo, s string) { a.AircraftType = s }},
	{"aircraft manufacturer", func(a *models.AircraftInfo, s string) { a.AircraftManufacturer = s }},
}

func (b *partyBuilder) feature(f source.Feature) {
	label, ok := b.label(models.CategoryFeatureType, f.FeatureTypeID)
	if !ok {
		b.warn(models.WarnUnknownFeatureType, "FeatureType "+f.FeatureTypeID)
	}
	kind := strings.ToLower(label)

	for _, v := range f.Versions {
		b.documentRefs(v)

		switch {
		case strings.Contains(kind, "birth") && strings.Contains(kind, "date"):
			for i := range v.DatePeriods {
				b.rec.DatesOfBirth = pstrings.AppendUnique(b.rec.DatesOfBirth, v.DatePeriods[i].Earliest())
			}
		case strings.Contains(kind, "place of birth"):
			b.rec.PlacesOfBirth = pstrings.AppendUnique(b.rec.PlacesOfBirth, b.placeOfBirth(v))
		case strings.Contains(kind, "national"):
			b.rec.Nationalities = pstrings.AppendUnique(b.rec.Nationalities, b.country(v))
		case strings.Contains(kind, "citizen"):
			b.rec.Citizenships = pstrings.AppendUnique(b.rec.Citizenships, b.country(v))
		case strings.Contains(kind, "gender"):
			if b.rec.Gender == "" {
				b.rec.Gender = b.text(v)
			}
		case strings.Contains(kind, "title"):
			if b.rec.Title == "" {
				b.rec.Title = b.text(v)
			}
		case strings.Contains(kind, "additional sanctions"):
			b.additional = pstrings.AppendUnique(b.additional, b.text(v))
		case strings.HasPrefix(kind, "vessel") || kind == "mmsi" || strings.HasPrefix(kind, "imo") ||
			strings.Contains(kind, "gross registered tonnage"):
			b.vesselFeature(kind, v)
		case strings.HasPrefix(kind, "aircraft"):
			b.aircraftFeature(kind, v)
		default:
			b.addresses(v)
		}
	}
}

func (b *partyBuilder) vesselFeature(kind string, v source.FeatureVersion) {
	if b.rec.EntityType != models.EntityVessel {
		return
	}
	for _, field := range vesselFields {
		if !strings.Contains(kind, field.key) {
			continue
		}
		value := b.text(v)
		if value == "" && field.key == "vessel flag" {
			value = b.country(v)
		}
		if value != "" {
			field.set(&b.vessel, value)
		}
		return
	}
}

func (b *partyBuilder) aircraftFeature(kind string, v source.FeatureVersion) {
	if b.rec.EntityType != models.EntityAircraft {
		return
	}
	for _, field := range aircraftFields {
		if !strings.Contains(kind, field.key) {
			continue
		}
		if value := b.text(v); value != "" {
			field.set(&b.aircraft, value)
		}
		return
	}
}

// text returns the free-text value of a version: the comment, else the first
// detail text, else the first resolvable detail reference label.
func (b *partyBuilder) text(v source.FeatureVersion) string {
	if s := strings.TrimSpace(v.Comment); s != "" {
		return s
	}
	for _, d := range v.Details {
		if s := strings.TrimSpace(d.Text); s != "" {
			return s
		}
	}
	for _, d := range v.Details {
		if d.DetailReferenceID == "" {
			continue
		}
		if s, ok := b.label(models.CategoryDetailReference, d.DetailReferenceID); ok {
			return s
		}
		b.warn(models.WarnUnresolvedLabel, "DetailReference "+d.DetailReferenceID)
	}
	return ""
}

// country resolves a country-valued version from a CountryID attribute, a
// referenced location, a detail reference, or plain text, in that order.
func (b *partyBuilder) country(v source.FeatureVersion) string {
	for _, d := range v.Details {
		if d.CountryID == "" {
			continue
		}
		if s, ok := b.label(models.CategoryCountry, d.CountryID); ok {
			return s
		}
		b.warn(models.WarnUnresolvedLabel, "Country "+d.CountryID)
	}
	for _, id := range locationIDs(v) {
		if loc, ok := b.location(id); ok && loc.Country != "" {
			return loc.Country
		}
	}
	return b.text(v)
}

func (b *partyBuilder) placeOfBirth(v source.FeatureVersion) string {
	if s := b.text(v); s != "" {
		return s
	}
	for _, id := range locationIDs(v) {
		if loc, ok := b.location(id); ok {
			if s := pstrings.JoinNonEmpty(", ", loc.City, loc.StateProvince, loc.Country); s != "" {
				return s
			}
		}
	}
	return ""
}

func (b *partyBuilder) addresses(v source.FeatureVersion) {
	for _, id := range locationIDs(v) {
		if _, seen := b.seenLocations[id]; seen {
			continue
		}
		loc, ok := b.location(id)
		if !ok {
			continue
		}
		b.seenLocations[id] = struct{}{}
		b.rec.Addresses = append(b.rec.Addresses, loc)
	}
}

func (b *partyBuilder) location(id string) (models.Location, bool) {
	loc, ok := b.d.shared.Location(id).Get()
	if !ok {
		b.warn(models.WarnDanglingLocation, "Location "+id)
		return models.Location{}, false
	}
	return loc, !loc.IsZero()
}

func (b *partyBuilder) documentRefs(v source.FeatureVersion) {
	for _, ref := range v.DocumentRefs {
		b.document(ref.Ref())
	}
	for _, d := range v.Details {
		for _, ref := range d.DocumentRefs {
			b.document(ref.Ref())
		}
	}
}

// document attaches a shared document once per record.
func (b *partyBuilder) document(id string) {
	if id == "" {
		return
	}
	if _, seen := b.seenDocuments[id]; seen {
		return
	}
	doc, ok := b.d.shared.Document(id).Get()
	if !ok {
		b.warn(models.WarnDanglingDocument, "IDRegDocument "+id)
		return
	}
	b.seenDocuments[id] = struct{}{}
	b.rec.IDDocuments = append(b.rec.IDDocuments, doc)
}

func locationIDs(v source.FeatureVersion) []string {
	var ids []string
	for _, l := range v.Locations {
		if id := strings.TrimSpace(l.LocationID); id != "" {
			ids = append(ids, id)
		}
	}
	for _, d := range v.Details {
		for _, id := range d.LocationIDs {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
