package source

import (
	"encoding/xml"
	"strings"
)

// Document holds the decoded sections of one source publication.
type Document struct {
	DateOfIssue      string
	ReferenceSets    []ReferenceSet
	Locations        []Location
	IDRegDocuments   []IDRegDocument
	SanctionsEntries []SanctionsEntry
	DistinctParties  []DistinctParty
}

// ReferenceSet is one enumeration table, e.g. AliasTypeValues.
type ReferenceSet struct {
	XMLName xml.Name
	Items   []ReferenceValue `xml:",any"`
}

// Name is the set element name, e.g. "CountryValues".
func (s ReferenceSet) Name() string {
	return s.XMLName.Local
}

type ReferenceValue struct {
	XMLName      xml.Name
	ID           string `xml:"ID,attr"`
	PartyTypeID  string `xml:"PartyTypeID,attr"`
	ShortRefAttr string `xml:"LegalBasisShortRef,attr"`
	ShortRef     string `xml:"LegalBasisShortRef"`
	Text         string `xml:",chardata"`
}

// Label returns the value's display text. Legal bases prefer their short reference.
func (v ReferenceValue) Label() string {
	if s := strings.TrimSpace(v.ShortRef); s != "" {
		return s
	}
	if s := strings.TrimSpace(v.ShortRefAttr); s != "" {
		return s
	}
	return strings.TrimSpace(v.Text)
}

type Location struct {
	ID        string            `xml:"ID,attr"`
	Parts     []LocationPart    `xml:"LocationPart"`
	Countries []LocationCountry `xml:"LocationCountry"`
}

type LocationPart struct {
	TypeID string              `xml:"LocPartTypeID,attr"`
	Values []LocationPartValue `xml:"LocationPartValue"`
}

// Value returns the primary value of the part, or the first non-empty one.
func (p LocationPart) Value() string {
	first := ""
	for _, v := range p.Values {
		s := v.String()
		if s == "" {
			continue
		}
		if strings.EqualFold(v.Primary, "true") {
			return s
		}
		if first == "" {
			first = s
		}
	}
	return first
}

type LocationPartValue struct {
	Primary string `xml:"Primary,attr"`
	Value   string `xml:"Value"`
	Text    string `xml:",chardata"`
}

func (v LocationPartValue) String() string {
	if s := strings.TrimSpace(v.Value); s != "" {
		return s
	}
	return strings.TrimSpace(v.Text)
}

type LocationCountry struct {
	CountryID string `xml:"CountryID,attr"`
}

type IDRegDocument struct {
	ID                string         `xml:"ID,attr"`
	TypeID            string         `xml:"IDRegDocTypeID,attr"`
	IdentityID        string         `xml:"IdentityID,attr"`
	IssuedByCountryID string         `xml:"IssuedBy-CountryID,attr"`
	ValidityID        string         `xml:"ValidityID,attr"`
	TypeRef           *TypedRef      `xml:"IDRegDocType"`
	RegistrationNo    string         `xml:"IDRegistrationNo"`
	LegacyNumber      string         `xml:"IDRegDocumentID"`
	IssuingCountry    *CountryRef    `xml:"IssuingCountry"`
	DocumentDates     []DocumentDate `xml:"DocumentDate"`
	LegacyIssued      *DatePeriod    `xml:"IDRegDocDateOfIssuance"`
	LegacyExpires     *DatePeriod    `xml:"IDRegDocExpirationDate"`
}

// TypedRef is an element naming a document type by attribute with text fallback.
type TypedRef struct {
	TypeID string `xml:"IDRegDocTypeID,attr"`
	Text   string `xml:",chardata"`
}

type CountryRef struct {
	CountryID string `xml:"CountryID,attr"`
}

type DocumentDate struct {
	TypeID string     `xml:"IDRegDocDateTypeID,attr"`
	Period DatePeriod `xml:"DatePeriod"`
}

type SanctionsEntry struct {
	ID               string             `xml:"ID,attr"`
	ProfileID        string             `xml:"ProfileID,attr"`
	ProfileIDElem    string             `xml:"ProfileID"`
	Events           []EntryEvent       `xml:"EntryEvent"`
	Measures         []SanctionsMeasure `xml:"SanctionsMeasure"`
	SanctionsLists   []string           `xml:"SanctionsList"`
	LegalAuthorities []LegalAuthority   `xml:"LegalAuthority"`
	Remarks          string             `xml:"Remarks"`
}

// Profile returns the profile ID from the attribute or the child element.
func (e SanctionsEntry) Profile() string {
	if s := strings.TrimSpace(e.ProfileID); s != "" {
		return s
	}
	return strings.TrimSpace(e.ProfileIDElem)
}

type EntryEvent struct {
	LegalBasisID     string           `xml:"LegalBasisID,attr"`
	LegalAuthorities []LegalAuthority `xml:"LegalAuthority"`
}

type SanctionsMeasure struct {
	SanctionsProgramID string           `xml:"SanctionsProgramID,attr"`
	Comment            string           `xml:"Comment"`
	SanctionsLists     []string         `xml:"SanctionsList"`
	LegalAuthorities   []LegalAuthority `xml:"LegalAuthority"`
}

// LegalAuthority cites a legal basis by ID, by an inline short reference, or
// as bare text.
type LegalAuthority struct {
	LegalBasisID string `xml:"LegalBasisID,attr"`
	ShortRef     string `xml:"LegalBasisShortRef"`
	Text         string `xml:",chardata"`
}

type DistinctParty struct {
	FixedRef string    `xml:"FixedRef,attr"`
	Profiles []Profile `xml:"Profile"`
}

type Profile struct {
	ID             string     `xml:"ID,attr"`
	PartySubTypeID string     `xml:"PartySubTypeID,attr"`
	Identities     []Identity `xml:"Identity"`
	Features       []Feature  `xml:"Feature"`
}

type Identity struct {
	ID             string          `xml:"ID,attr"`
	Aliases        []Alias         `xml:"Alias"`
	NamePartGroups []NamePartGroup `xml:"NamePartGroups>MasterNamePartGroup>NamePartGroup"`
}

type NamePartGroup struct {
	ID             string `xml:"ID,attr"`
	NamePartTypeID string `xml:"NamePartTypeID,attr"`
}

type Alias struct {
	AliasTypeID     string           `xml:"AliasTypeID,attr"`
	Primary         string           `xml:"Primary,attr"`
	LowQuality      string           `xml:"LowQuality,attr"`
	DocumentedNames []DocumentedName `xml:"DocumentedName"`
}

func (a Alias) IsPrimary() bool {
	return strings.EqualFold(strings.TrimSpace(a.Primary), "true")
}

func (a Alias) IsLowQuality() bool {
	return strings.EqualFold(strings.TrimSpace(a.LowQuality), "true")
}

type DocumentedName struct {
	Parts []NamePartValue `xml:"DocumentedNamePart>NamePartValue"`
}

type NamePartValue struct {
	NamePartGroupID string `xml:"NamePartGroupID,attr"`
	ScriptID        string `xml:"ScriptID,attr"`
	Text            string `xml:",chardata"`
}

type Feature struct {
	ID            string           `xml:"ID,attr"`
	FeatureTypeID string           `xml:"FeatureTypeID,attr"`
	Versions      []FeatureVersion `xml:"FeatureVersion"`
}

type FeatureVersion struct {
	Comment      string            `xml:"Comment"`
	DatePeriods  []DatePeriod      `xml:"DatePeriod"`
	Details      []VersionDetail   `xml:"VersionDetail"`
	Locations    []VersionLocation `xml:"VersionLocation"`
	DocumentRefs []DocumentRef     `xml:"IDRegDocumentReference"`
}

// VersionDetail carries a typed value. Country, location and document
// references may appear as attributes or child elements.
type VersionDetail struct {
	DetailTypeID      string        `xml:"DetailTypeID,attr"`
	DetailReferenceID string        `xml:"DetailReferenceID,attr"`
	CountryID         string        `xml:"CountryID,attr"`
	LocationIDs       []string      `xml:"LocationID"`
	DocumentRefs      []DocumentRef `xml:"IDRegDocumentReference"`
	Text              string        `xml:",chardata"`
}

type VersionLocation struct {
	LocationID string `xml:"LocationID,attr"`
}

type DocumentRef struct {
	DocumentID      string `xml:"DocumentID,attr"`
	IDRegDocumentID string `xml:"IDRegDocumentID,attr"`
}

// Ref returns whichever document ID attribute is set.
func (r DocumentRef) Ref() string {
	if s := strings.TrimSpace(r.IDRegDocumentID); s != "" {
		return s
	}
	return strings.TrimSpace(r.DocumentID)
}

// DatePeriod is a possibly open or approximate date range.
type DatePeriod struct {
	Start *DateBoundary `xml:"Start"`
	End   *DateBoundary `xml:"End"`
}

type DateBoundary struct {
	From *DateParts `xml:"From"`
	To   *DateParts `xml:"To"`
}

type DateParts struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}
