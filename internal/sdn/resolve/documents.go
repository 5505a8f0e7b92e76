package resolve

import (
	"strconv"
	"strings"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
)

// Documents builds the identity document map and the identity link index.
func Documents(src []source.IDRegDocument, lookups *models.Lookups) (map[string]models.IDDocument, map[string][]string, []models.Warning) {
	out := make(map[string]models.IDDocument, len(src))
	byIdentity := make(map[string][]string)
	var warnings []models.Warning

	for i, raw := range src {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			warnings = append(warnings, models.Warning{Kind: models.WarnMalformedDocument, Subject: "#" + strconv.Itoa(i), Ref: "ID"})
			continue
		}
		if _, dup := out[id]; dup {
			warnings = append(warnings, models.Warning{Kind: models.WarnDuplicateObject, Subject: "document", Ref: id})
			continue
		}

		doc := models.IDDocument{
			IDType:   documentType(raw, lookups),
			IDNumber: firstNonEmpty(strings.TrimSpace(raw.RegistrationNo), strings.TrimSpace(raw.LegacyNumber)),
		}

		countryID := raw.IssuedByCountryID
		if countryID == "" && raw.IssuingCountry != nil {
			countryID = raw.IssuingCountry.CountryID
		}
		if countryID != "" {
			if name, ok := lookups.Label(models.CategoryCountry, countryID).Get(); ok {
				doc.Country = name
			} else {
				warnings = append(warnings, models.Warning{Kind: models.WarnUnresolvedLabel, Subject: "document " + id, Ref: "Country " + countryID})
			}
		}

		for _, d := range raw.DocumentDates {
			label := strings.ToLower(lookups.Label(models.CategoryIDRegDocDateType, d.TypeID).OrElse(""))
			switch {
			case strings.Contains(label, "issu"):
				doc.IssueDate = firstNonEmpty(doc.IssueDate, d.Period.Earliest())
			case strings.Contains(label, "expir"):
				doc.ExpiryDate = firstNonEmpty(doc.ExpiryDate, d.Period.Earliest())
			}
		}
		doc.IssueDate = firstNonEmpty(doc.IssueDate, raw.LegacyIssued.Earliest())
		doc.ExpiryDate = firstNonEmpty(doc.ExpiryDate, raw.LegacyExpires.Earliest())

		validity := lookups.Label(models.CategoryValidity, raw.ValidityID).OrElse("")
		doc.IsFraudulent = strings.Contains(strings.ToLower(validity), "fraud")

		out[id] = doc
		if identity := strings.TrimSpace(raw.IdentityID); identity != "" {
			byIdentity[identity] = append(byIdentity[identity], id)
		}
	}
	return out, byIdentity, warnings
}

func documentType(raw source.IDRegDocument, lookups *models.Lookups) string {
	if label, ok := lookups.Label(models.CategoryIDRegDocType, raw.TypeID).Get(); ok {
		return label
	}
	if raw.TypeRef != nil {
		if label, ok := lookups.Label(models.CategoryIDRegDocType, raw.TypeRef.TypeID).Get(); ok {
			return label
		}
		return strings.TrimSpace(raw.TypeRef.Text)
	}
	return ""
}
