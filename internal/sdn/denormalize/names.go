package denormalize

import (
	"cmp"
	"slices"
	"strings"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
)

const (
	defaultAliasType = "a.k.a."
	defaultPartyType = "Name"
	otherPartOrder   = 99
)

// namePartOrder ranks name-part types when rebuilding a full name: family
// and entity names first, then given, middle, patronymic, matronymic.
var namePartOrder = map[string]int{
	"last name":     0,
	"last":          0,
	"entity name":   0,
	"vessel name":   0,
	"aircraft name": 0,
	"first name":    1,
	"first":         1,
	"middle name":   2,
	"middle":        2,
	"patronymic":    3,
	"matronymic":    4,
}

// PartOrder returns the sort rank of a name-part type label.
func PartOrder(partType string) int {
	if n, ok := namePartOrder[strings.ToLower(strings.TrimSpace(partType))]; ok {
		return n
	}
	return otherPartOrder
}

type orderedPart struct {
	order int
	part  models.NamePart
}

func (b *partyBuilder) identity(identity source.Identity) {
	groupTypes := make(map[string]string, len(identity.NamePartGroups))
	for _, g := range identity.NamePartGroups {
		label, ok := b.label(models.CategoryNamePartType, g.NamePartTypeID)
		if !ok {
			b.warn(models.WarnUnresolvedLabel, "NamePartType "+g.NamePartTypeID)
			label = defaultPartyType
		}
		groupTypes[g.ID] = label
	}

	for _, alias := range identity.Aliases {
		aliasType, ok := b.label(models.CategoryAliasType, alias.AliasTypeID)
		if !ok {
			if alias.AliasTypeID != "" {
				b.warn(models.WarnUnresolvedLabel, "AliasType "+alias.AliasTypeID)
			}
			aliasType = defaultAliasType
		}
		quality := models.AliasStrong
		if alias.IsLowQuality() {
			quality = models.AliasWeak
		}

		for _, dn := range alias.DocumentedNames {
			name, ok := b.documentedName(dn, groupTypes)
			if !ok {
				continue
			}
			if alias.IsPrimary() && b.rec.PrimaryName == nil {
				b.rec.PrimaryName = &name
				continue
			}
			b.rec.Aliases = append(b.rec.Aliases, models.Alias{
				AliasType:    aliasType,
				AliasQuality: quality,
				FullName:     name.FullName,
				NameParts:    name.NameParts,
			})
		}
	}
}

// documentedName orders the parts and joins them into the full name.
// The sort is stable so parts of equal rank keep their source order.
func (b *partyBuilder) documentedName(dn source.DocumentedName, groupTypes map[string]string) (models.Name, bool) {
	parts := make([]orderedPart, 0, len(dn.Parts))
	for _, v := range dn.Parts {
		value := strings.TrimSpace(v.Text)
		if value == "" {
			continue
		}
		partType, ok := groupTypes[v.NamePartGroupID]
		if !ok {
			partType = defaultPartyType
		}
		script, _ := b.label(models.CategoryScript, v.ScriptID)
		parts = append(parts, orderedPart{
			order: PartOrder(partType),
			part:  models.NamePart{PartType: partType, PartValue: value, Script: script},
		})
	}
	if len(parts) == 0 {
		return models.Name{}, false
	}

	slices.SortStableFunc(parts, func(a, b orderedPart) int {
		return cmp.Compare(a.order, b.order)
	})

	name := models.Name{NameParts: make([]models.NamePart, len(parts))}
	values := make([]string, len(parts))
	for i, p := range parts {
		name.NameParts[i] = p.part
		values[i] = p.part.PartValue
	}
	name.FullName = strings.Join(values, " ")
	return name, true
}
