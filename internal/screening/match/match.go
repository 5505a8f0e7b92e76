// Package match scores index names against a query and ranks the hits.
package match

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"sdnscreen/internal/screening/index"
	"sdnscreen/internal/screening/phonetic"
)

// Scores, best first.
const (
	ScoreExact    = 1
	ScoreClose    = 2
	ScoreWithin   = 3
	ScorePhonetic = 4
)

// closeDistance is the fixed cutoff of the ScoreClose tier.
const closeDistance = 2

// cancelCheckEvery is how many names are scanned between context checks.
const cancelCheckEvery = 1024

type Query struct {
	Name      string
	Threshold int
	// Limit caps the total number of hits. Zero or less means no cap.
	Limit int
}

// Hit is one scored index name. Several hits may share an entry.
type Hit struct {
	index.Name
	Score    int
	Distance int
	position int
}

// Comparison is what the tier predicates see for one name.
type Comparison struct {
	Exact     bool
	Distance  int
	Threshold int
	Phonetic  bool
}

type tier struct {
	score int
	match func(c Comparison) bool
}

// admitted reports whether c passes the query filter at all. Tiers only rank
// admitted names, so a threshold of zero also rules out the close tier unless
// the name is exact or sounds alike.
func admitted(c Comparison) bool {
	return c.Exact || c.Distance <= c.Threshold || c.Phonetic
}

// tiers are evaluated in order; the first match scores the name.
var tiers = []tier{
	{ScoreExact, func(c Comparison) bool { return c.Exact }},
	{ScoreClose, func(c Comparison) bool { return c.Distance <= closeDistance }},
	{ScoreWithin, func(c Comparison) bool { return c.Distance <= c.Threshold }},
	{ScorePhonetic, func(c Comparison) bool { return c.Phonetic }},
}

// Score returns the tier of c, or false when c is not admitted.
func Score(c Comparison) (int, bool) {
	if !admitted(c) {
		return 0, false
	}
	for _, t := range tiers {
		if t.match(c) {
			return t.score, true
		}
	}
	return 0, false
}

// Match scans idx and returns the ranked hits for q. Ranking is score, then
// edit distance, then entry ID, then primary before alias, then index order.
// A cancelled ctx abandons the scan.
func Match(ctx context.Context, idx *index.Index, q Query) ([]Hit, error) {
	query := strings.ToLower(strings.TrimSpace(q.Name))
	if query == "" {
		return nil, nil
	}
	threshold := max(q.Threshold, 0)
	queryRunes := utf8.RuneCountInString(query)
	querySoundex := phonetic.Soundex(query)

	var hits []Hit
	for i, name := range idx.Names() {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		phonetic := querySoundex != "" && querySoundex == name.Soundex
		gap := name.Runes - queryRunes
		if gap < 0 {
			gap = -gap
		}
		// The edit distance is at least the length gap.
		if gap > threshold && !phonetic {
			continue
		}

		c := Comparison{
			Exact:     name.Lower == query,
			Threshold: threshold,
			Phonetic:  phonetic,
		}
		if !c.Exact {
			c.Distance = levenshtein.ComputeDistance(query, name.Lower)
		}
		score, ok := Score(c)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Name: name, Score: score, Distance: c.Distance, position: i})
	}

	slices.SortFunc(hits, compareHits)
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

func compareHits(a, b Hit) int {
	if c := cmp.Compare(a.Score, b.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	if c := cmp.Compare(a.EntryID, b.EntryID); c != 0 {
		return c
	}
	if a.Primary != b.Primary {
		if a.Primary {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.position, b.position)
}
