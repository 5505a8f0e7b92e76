package models

import (
	"strings"
	"time"
)

// EntityType is the normalized kind of a sanctioned party.
type EntityType string

const (
	EntityIndividual   EntityType = "individual"
	EntityOrganization EntityType = "organization"
	EntityVessel       EntityType = "vessel"
	EntityAircraft     EntityType = "aircraft"
	EntityUnknown      EntityType = "unknown"
)

// ParseEntityType maps a party type or subtype label to an EntityType.
func ParseEntityType(label string) EntityType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "individual":
		return EntityIndividual
	case "entity", "organization", "organisation":
		return EntityOrganization
	case "vessel":
		return EntityVessel
	case "aircraft":
		return EntityAircraft
	default:
		return EntityUnknown
	}
}

// Alias quality labels derived from the source LowQuality flag.
const (
	AliasStrong = "strong"
	AliasWeak   = "weak"
)

type NamePart struct {
	PartType  string `json:"part_type"`
	PartValue string `json:"part_value"`
	Script    string `json:"script,omitempty"`
}

// Name is a reconstructed name with its ordered parts.
type Name struct {
	FullName  string     `json:"full_name"`
	NameParts []NamePart `json:"name_parts,omitempty"`
}

type Alias struct {
	AliasType    string     `json:"alias_type"`
	AliasQuality string     `json:"alias_quality"`
	FullName     string     `json:"full_name"`
	NameParts    []NamePart `json:"name_parts,omitempty"`
}

type VesselInfo struct {
	VesselType     string `json:"vessel_type,omitempty"`
	VesselFlag     string `json:"vessel_flag,omitempty"`
	VesselOwner    string `json:"vessel_owner,omitempty"`
	VesselTonnage  string `json:"vessel_tonnage,omitempty"`
	VesselGRT      string `json:"vessel_grt,omitempty"`
	VesselCallSign string `json:"vessel_call_sign,omitempty"`
	VesselMMSI     string `json:"vessel_mmsi,omitempty"`
	VesselIMO      string `json:"vessel_imo,omitempty"`
}

func (v VesselInfo) IsZero() bool {
	return v == VesselInfo{}
}

type AircraftInfo struct {
	AircraftType         string `json:"aircraft_type,omitempty"`
	AircraftManufacturer string `json:"aircraft_manufacturer,omitempty"`
	AircraftSerial       string `json:"aircraft_serial,omitempty"`
	AircraftTailNumber   string `json:"aircraft_tail_number,omitempty"`
	AircraftOperator     string `json:"aircraft_operator,omitempty"`
}

func (a AircraftInfo) IsZero() bool {
	return a == AircraftInfo{}
}

// Record is the denormalized, self-contained view of one sanctioned party.
// Every cross-reference of the source is either resolved into a value here or
// left out; no field carries a source ID other than EntryID.
type Record struct {
	EntryID                 int64         `json:"entry_id"`
	SDNType                 string        `json:"sdn_type,omitempty"`
	EntityType              EntityType    `json:"entity_type"`
	Programs                []string      `json:"programs,omitempty"`
	LegalAuthorities        []string      `json:"legal_authorities,omitempty"`
	PrimaryName             *Name         `json:"primary_name,omitempty"`
	Aliases                 []Alias       `json:"aliases,omitempty"`
	Addresses               []Location    `json:"addresses,omitempty"`
	IDDocuments             []IDDocument  `json:"id_documents,omitempty"`
	DatesOfBirth            []string      `json:"dates_of_birth,omitempty"`
	PlacesOfBirth           []string      `json:"places_of_birth,omitempty"`
	Nationalities           []string      `json:"nationalities,omitempty"`
	Citizenships            []string      `json:"citizenships,omitempty"`
	Title                   string        `json:"title,omitempty"`
	Gender                  string        `json:"gender,omitempty"`
	Remarks                 string        `json:"remarks,omitempty"`
	VesselInfo              *VesselInfo   `json:"vessel_info,omitempty"`
	AircraftInfo            *AircraftInfo `json:"aircraft_info,omitempty"`
	AdditionalSanctionsInfo string        `json:"additional_sanctions_info,omitempty"`
	PublicationDate         string        `json:"publication_date,omitempty"`
	IngestionTimestamp      time.Time     `json:"ingestion_timestamp"`
	SourceURL               string        `json:"source_url,omitempty"`
}

// PrimaryFullName returns the primary name text or "".
func (r *Record) PrimaryFullName() string {
	if r.PrimaryName == nil {
		return ""
	}
	return r.PrimaryName.FullName
}
