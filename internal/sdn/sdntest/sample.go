// Package sdntest loads the shared sample publication for package tests.
package sdntest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"sdnscreen/internal/sdn/lookup"
	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/resolve"
	"sdnscreen/internal/sdn/source"
)

// SamplePath is the absolute path of the sample advanced XML publication.
func SamplePath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "testdata", "sdn_advanced_sample.xml")
}

// SampleBytes returns the raw sample publication.
func SampleBytes(t testing.TB) []byte {
	t.Helper()
	raw, err := os.ReadFile(SamplePath())
	require.NoError(t, err)
	return raw
}

// Sample decodes the sample publication and runs Pass 1 on it.
func Sample(t testing.TB) (*source.Document, *models.Lookups, *resolve.Shared) {
	t.Helper()
	f, err := os.Open(SamplePath())
	require.NoError(t, err)
	defer f.Close()

	doc, err := source.Decode(f)
	require.NoError(t, err)
	lookups, _, err := lookup.Build(context.Background(), doc.ReferenceSets)
	require.NoError(t, err)
	shared, _, err := resolve.BuildAll(context.Background(), doc, lookups)
	require.NoError(t, err)
	return doc, lookups, shared
}
