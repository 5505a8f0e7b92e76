// Package sanitize strips empty containers left behind by resolution.
package sanitize

import (
	"sdnscreen/internal/sdn/models"
)

// Record replaces empty optional blocks with absent (nil) values and drops
// empty entries from list fields. It never adds information, so applying it
// twice gives the same result as applying it once.
func Record(r models.Record) models.Record {
	if r.PrimaryName != nil && r.PrimaryName.FullName == "" && len(r.PrimaryName.NameParts) == 0 {
		r.PrimaryName = nil
	}
	if r.PrimaryName != nil {
		name := *r.PrimaryName
		name.NameParts = nilIfEmpty(name.NameParts)
		r.PrimaryName = &name
	}
	if r.VesselInfo != nil && r.VesselInfo.IsZero() {
		r.VesselInfo = nil
	}
	if r.AircraftInfo != nil && r.AircraftInfo.IsZero() {
		r.AircraftInfo = nil
	}

	r.Aliases = filter(r.Aliases, func(a models.Alias) bool { return a.FullName != "" })
	for i := range r.Aliases {
		r.Aliases[i].NameParts = nilIfEmpty(r.Aliases[i].NameParts)
	}
	r.Addresses = filter(r.Addresses, func(l models.Location) bool { return !l.IsZero() })
	r.IDDocuments = filter(r.IDDocuments, func(d models.IDDocument) bool { return d != models.IDDocument{} })

	r.Programs = nonEmptyStrings(r.Programs)
	r.LegalAuthorities = nonEmptyStrings(r.LegalAuthorities)
	r.DatesOfBirth = nonEmptyStrings(r.DatesOfBirth)
	r.PlacesOfBirth = nonEmptyStrings(r.PlacesOfBirth)
	r.Nationalities = nonEmptyStrings(r.Nationalities)
	r.Citizenships = nonEmptyStrings(r.Citizenships)
	return r
}

// Completeness counts populated attributes. Empty lists and absent blocks do
// not count.
func Completeness(r models.Record) int {
	n := 0
	for _, present := range []bool{
		r.SDNType != "",
		r.PrimaryName != nil && r.PrimaryName.FullName != "",
		len(r.Programs) > 0,
		len(r.LegalAuthorities) > 0,
		len(r.Aliases) > 0,
		len(r.Addresses) > 0,
		len(r.IDDocuments) > 0,
		len(r.DatesOfBirth) > 0,
		len(r.PlacesOfBirth) > 0,
		len(r.Nationalities) > 0,
		len(r.Citizenships) > 0,
		r.Title != "",
		r.Gender != "",
		r.Remarks != "",
		r.VesselInfo != nil && !r.VesselInfo.IsZero(),
		r.AircraftInfo != nil && !r.AircraftInfo.IsZero(),
		r.AdditionalSanctionsInfo != "",
	} {
		if present {
			n++
		}
	}
	return n
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

// filter keeps matching elements in a fresh slice so the caller's backing
// array is never rewritten.
func filter[T any](s []T, keep func(T) bool) []T {
	var out []T
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func nonEmptyStrings(s []string) []string {
	return filter(s, func(v string) bool { return v != "" })
}
