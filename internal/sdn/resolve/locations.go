package resolve

import (
	"strconv"
	"strings"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
	pstrings "sdnscreen/pkg/platform/strings"
)

// Locations builds the location map. Parts are classified by the label of
// their location-part type; anything unclassified extends the address.
func Locations(src []source.Location, lookups *models.Lookups) (map[string]models.Location, []models.Warning) {
	out := make(map[string]models.Location, len(src))
	var warnings []models.Warning

	for i, raw := range src {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			warnings = append(warnings, models.Warning{Kind: models.WarnMalformedLocation, Subject: "#" + strconv.Itoa(i), Ref: "ID"})
			continue
		}
		if _, dup := out[id]; dup {
			warnings = append(warnings, models.Warning{Kind: models.WarnDuplicateObject, Subject: "location", Ref: id})
			continue
		}

		var loc models.Location
		var address []string
		for _, part := range raw.Parts {
			value := part.Value()
			if value == "" {
				continue
			}
			label, ok := lookups.Label(models.CategoryLocPartType, part.TypeID).Get()
			if !ok {
				warnings = append(warnings, models.Warning{Kind: models.WarnUnresolvedLabel, Subject: "location " + id, Ref: "LocPartType " + part.TypeID})
			}
			switch kind := strings.ToLower(label); {
			case strings.Contains(kind, "city"):
				loc.City = firstNonEmpty(loc.City, value)
			case strings.Contains(kind, "address"):
				address = append(address, value)
			case strings.Contains(kind, "state"), strings.Contains(kind, "province"):
				loc.StateProvince = firstNonEmpty(loc.StateProvince, value)
			case strings.Contains(kind, "postal"), strings.Contains(kind, "zip"):
				loc.PostalCode = firstNonEmpty(loc.PostalCode, value)
			case strings.Contains(kind, "region"):
				loc.Region = firstNonEmpty(loc.Region, value)
			default:
				address = append(address, value)
			}
		}
		loc.Address = pstrings.JoinNonEmpty(", ", address...)

		for _, c := range raw.Countries {
			if name, ok := lookups.Label(models.CategoryCountry, c.CountryID).Get(); ok {
				loc.Country = name
				break
			}
			warnings = append(warnings, models.Warning{Kind: models.WarnUnresolvedLabel, Subject: "location " + id, Ref: "Country " + c.CountryID})
		}

		out[id] = loc
	}
	return out, warnings
}

func firstNonEmpty(current, next string) string {
	if current != "" {
		return current
	}
	return next
}
