// Package lookup builds the ID to label tables from the reference value sets.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
)

// ErrDuplicateID means one category defines the same ID twice. The source
// format has drifted or the document is corrupt; ingestion must stop.
var ErrDuplicateID = errors.New("duplicate reference id")

// Build turns the reference sets into immutable lookup tables.
// Known categories are built concurrently, one goroutine each. Sets of
// unknown categories are skipped and their names returned.
func Build(ctx context.Context, sets []source.ReferenceSet) (*models.Lookups, []string, error) {
	grouped := make(map[models.Category][]source.ReferenceSet)
	var ignored []string
	for _, s := range sets {
		c := categoryOf(s.Name())
		if !c.IsKnown() {
			ignored = append(ignored, s.Name())
			continue
		}
		grouped[c] = append(grouped[c], s)
	}

	categories := make([]models.Category, 0, len(grouped))
	for c := range grouped {
		categories = append(categories, c)
	}
	tables := make([]map[string]string, len(categories))
	var parents map[string]string

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range categories {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := buildTable(c, grouped[c])
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if sub, ok := grouped[models.CategoryPartySubType]; ok {
		g.Go(func() error {
			parents = subtypeParents(sub)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	byCategory := make(map[models.Category]map[string]string, len(categories))
	for i, c := range categories {
		byCategory[c] = tables[i]
	}
	return models.NewLookups(byCategory, parents), ignored, nil
}

func categoryOf(setName string) models.Category {
	return models.Category(strings.TrimSuffix(setName, "Values"))
}

func buildTable(c models.Category, sets []source.ReferenceSet) (map[string]string, error) {
	size := 0
	for _, s := range sets {
		size += len(s.Items)
	}
	table := make(map[string]string, size)
	for _, s := range sets {
		for _, item := range s.Items {
			id := strings.TrimSpace(item.ID)
			if id == "" {
				continue
			}
			if _, exists := table[id]; exists {
				return nil, fmt.Errorf("%w: category %s id %s", ErrDuplicateID, c, id)
			}
			table[id] = item.Label()
		}
	}
	return table, nil
}

func subtypeParents(sets []source.ReferenceSet) map[string]string {
	parents := make(map[string]string)
	for _, s := range sets {
		for _, item := range s.Items {
			id := strings.TrimSpace(item.ID)
			if id == "" {
				continue
			}
			parents[id] = strings.TrimSpace(item.PartyTypeID)
		}
	}
	return parents
}
