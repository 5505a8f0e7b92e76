package models

// Category names one enumeration table of the source document. The value is
// the reference set name without its "Values" suffix.
type Category string

const (
	CategoryAliasType        Category = "AliasType"
	CategoryPartySubType     Category = "PartySubType"
	CategoryPartyType        Category = "PartyType"
	CategoryFeatureType      Category = "FeatureType"
	CategoryCountry          Category = "Country"
	CategoryScript           Category = "Script"
	CategoryNamePartType     Category = "NamePartType"
	CategoryLegalBasis       Category = "LegalBasis"
	CategorySanctionsProgram Category = "SanctionsProgram"
	CategoryLocPartType      Category = "LocPartType"
	CategoryIDRegDocType     Category = "IDRegDocType"
	CategoryIDRegDocDateType Category = "IDRegDocDateType"
	CategoryValidity         Category = "Validity"
	CategoryDetailReference  Category = "DetailReference"
)

// KnownCategories lists every category the denormalizer reads.
var KnownCategories = []Category{
	CategoryAliasType,
	CategoryPartySubType,
	CategoryPartyType,
	CategoryFeatureType,
	CategoryCountry,
	CategoryScript,
	CategoryNamePartType,
	CategoryLegalBasis,
	CategorySanctionsProgram,
	CategoryLocPartType,
	CategoryIDRegDocType,
	CategoryIDRegDocDateType,
	CategoryValidity,
	CategoryDetailReference,
}

// IsKnown reports whether c is read by the denormalizer.
func (c Category) IsKnown() bool {
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Lookups holds the ID to label tables of one ingestion run.
// It is never mutated after construction and is safe for concurrent reads.
type Lookups struct {
	tables        map[Category]map[string]string
	subtypeParent map[string]string
}

// NewLookups takes ownership of tables and subtypeParent (party subtype ID to
// party type ID). Callers must not modify either afterwards.
func NewLookups(tables map[Category]map[string]string, subtypeParent map[string]string) *Lookups {
	if tables == nil {
		tables = map[Category]map[string]string{}
	}
	if subtypeParent == nil {
		subtypeParent = map[string]string{}
	}
	return &Lookups{tables: tables, subtypeParent: subtypeParent}
}

// Label resolves id within category c.
func (l *Lookups) Label(c Category, id string) Maybe[string] {
	if id == "" {
		return None[string]()
	}
	label, ok := l.tables[c][id]
	if !ok || label == "" {
		return None[string]()
	}
	return Some(label)
}

// PartyTypeOf returns the party type ID a subtype belongs to.
func (l *Lookups) PartyTypeOf(subtypeID string) Maybe[string] {
	parent, ok := l.subtypeParent[subtypeID]
	if !ok || parent == "" {
		return None[string]()
	}
	return Some(parent)
}

// Len returns the number of entries in category c.
func (l *Lookups) Len(c Category) int {
	return len(l.tables[c])
}
