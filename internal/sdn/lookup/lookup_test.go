package lookup

import (
	"context"
	"encoding/xml"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/source"
)

func set(name string, items ...source.ReferenceValue) source.ReferenceSet {
	return source.ReferenceSet{XMLName: xml.Name{Local: name}, Items: items}
}

func value(id, text string) source.ReferenceValue {
	return source.ReferenceValue{ID: id, Text: text}
}

func TestBuild(t *testing.T) {
	sets := []source.ReferenceSet{
		set("CountryValues", value("11", "Iran"), value("14", "Iraq")),
		set("PartySubTypeValues",
			source.ReferenceValue{ID: "1", PartyTypeID: "2", Text: "Vessel"},
			source.ReferenceValue{ID: "4", PartyTypeID: "1", Text: "Unknown"},
		),
		set("LegalBasisValues", source.ReferenceValue{ID: "1", ShortRef: "EO13224", Text: "Executive Order"}),
		set("ReliabilityValues", value("1", "Reliable")),
		set("ScriptValues", value("", "no id"), value("215", "Latin")),
	}

	lookups, ignored, err := Build(context.Background(), sets)
	require.NoError(t, err)

	assert.Equal(t, []string{"ReliabilityValues"}, ignored)
	assert.Equal(t, "Iraq", lookups.Label(models.CategoryCountry, "14").OrElse(""))
	assert.Equal(t, "EO13224", lookups.Label(models.CategoryLegalBasis, "1").OrElse(""))
	assert.Equal(t, "Unknown", lookups.Label(models.CategoryPartySubType, "4").OrElse(""))
	assert.Equal(t, "1", lookups.PartyTypeOf("4").OrElse(""))
	assert.Equal(t, 1, lookups.Len(models.CategoryScript))
	assert.Equal(t, 0, lookups.Len(models.CategoryAliasType))
}

func TestBuildDuplicateIDIsFatal(t *testing.T) {
	t.Run("within one set", func(t *testing.T) {
		sets := []source.ReferenceSet{
			set("CountryValues", value("11", "Iran"), value("11", "Iraq")),
		}
		_, _, err := Build(context.Background(), sets)
		require.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("across repeated sets of one category", func(t *testing.T) {
		sets := []source.ReferenceSet{
			set("ScriptValues", value("215", "Latin")),
			set("ScriptValues", value("215", "Latin")),
		}
		_, _, err := Build(context.Background(), sets)
		require.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("same id in different categories is fine", func(t *testing.T) {
		sets := []source.ReferenceSet{
			set("ScriptValues", value("1", "Latin")),
			set("CountryValues", value("1", "Cuba")),
		}
		_, _, err := Build(context.Background(), sets)
		require.NoError(t, err)
	})

	t.Run("duplicates in an ignored category are not checked", func(t *testing.T) {
		sets := []source.ReferenceSet{
			set("ReliabilityValues", value("1", "a"), value("1", "b")),
		}
		_, ignored, err := Build(context.Background(), sets)
		require.NoError(t, err)
		assert.Len(t, ignored, 1)
	})
}

func TestBuildSample(t *testing.T) {
	f, err := os.Open("../testdata/sdn_advanced_sample.xml")
	require.NoError(t, err)
	defer f.Close()
	doc, err := source.Decode(f)
	require.NoError(t, err)

	lookups, _, err := Build(context.Background(), doc.ReferenceSets)
	require.NoError(t, err)

	for _, c := range models.KnownCategories {
		assert.Greater(t, lookups.Len(c), 0, "category %s", c)
	}
	assert.Equal(t, "IEEPA", lookups.Label(models.CategoryLegalBasis, "2").OrElse(""))
	assert.Equal(t, "STATE/PROVINCE", lookups.Label(models.CategoryLocPartType, "1454").OrElse(""))
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Build(ctx, []source.ReferenceSet{set("CountryValues", value("11", "Iran"))})
	require.ErrorIs(t, err, context.Canceled)
}
