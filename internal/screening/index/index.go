// Package index flattens a snapshot into matchable name rows.
package index

import (
	"strings"
	"unicode/utf8"

	"sdnscreen/internal/screening/phonetic"
	"sdnscreen/internal/sdn/models"
)

// Name is one matchable name of a record. Lower and Soundex are computed
// once at build time.
type Name struct {
	EntryID int64
	Text    string
	Primary bool
	// Record is the position of the owning record in the snapshot.
	Record int

	Lower   string
	Runes   int
	Soundex string
}

// Index is immutable once built and safe for concurrent readers.
type Index struct {
	names []Name
}

// Build emits the primary name and then every alias of each record, in record
// order. A primary name equal to one of its aliases is kept as two rows.
func Build(records []models.Record) *Index {
	idx := &Index{names: make([]Name, 0, len(records)*3)}
	for i := range records {
		r := &records[i]
		if r.PrimaryName != nil {
			idx.add(r.EntryID, i, r.PrimaryName.FullName, true)
		}
		for _, a := range r.Aliases {
			idx.add(r.EntryID, i, a.FullName, false)
		}
	}
	return idx
}

func (idx *Index) add(entryID int64, record int, text string, primary bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	lower := strings.ToLower(text)
	idx.names = append(idx.names, Name{
		EntryID: entryID,
		Text:    text,
		Primary: primary,
		Record:  record,
		Lower:   lower,
		Runes:   utf8.RuneCountInString(lower),
		Soundex: phonetic.Soundex(text),
	})
}

// Names returns the rows in build order. Callers must not modify them.
func (idx *Index) Names() []Name {
	return idx.names
}

func (idx *Index) Len() int {
	return len(idx.names)
}
