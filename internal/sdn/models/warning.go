package models

import (
	"fmt"
	"maps"
	"slices"
)

// WarningKind classifies a per-object resolution gap.
type WarningKind string

const (
	WarnMalformedLocation       WarningKind = "malformed_location"
	WarnMalformedDocument       WarningKind = "malformed_document"
	WarnMalformedSanctionsEntry WarningKind = "malformed_sanctions_entry"
	WarnDuplicateObject         WarningKind = "duplicate_object"
	WarnDanglingLocation        WarningKind = "dangling_location"
	WarnDanglingDocument        WarningKind = "dangling_document"
	WarnUnknownSubtype          WarningKind = "unknown_subtype"
	WarnUnknownFeatureType      WarningKind = "unknown_feature_type"
	WarnUnresolvedLabel         WarningKind = "unresolved_label"
	WarnRejectedParty           WarningKind = "rejected_party"
)

// Warning records one gap. Subject names the object being built (an entry ID
// or a shared object ID) and Ref the reference that failed.
type Warning struct {
	Kind    WarningKind
	Subject string
	Ref     string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s subject=%s ref=%s", w.Kind, w.Subject, w.Ref)
}

// WarningCounts aggregates warnings per kind for a run summary.
type WarningCounts map[WarningKind]int

func (c WarningCounts) Add(ws ...Warning) {
	for _, w := range ws {
		c[w.Kind]++
	}
}

func (c WarningCounts) Merge(other WarningCounts) {
	for k, n := range other {
		c[k] += n
	}
}

func (c WarningCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Kinds returns the recorded kinds in sorted order.
func (c WarningCounts) Kinds() []WarningKind {
	return slices.Sorted(maps.Keys(c))
}
