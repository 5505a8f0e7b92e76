package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdnscreen/internal/screening/catalog"
	"sdnscreen/internal/screening/service"
	"sdnscreen/internal/sdn/models"
	"sdnscreen/pkg/platform/middleware/requestid"
	"sdnscreen/pkg/testutil"
)

var snapshotID = uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f")

func newRouter(t *testing.T, loaded bool) http.Handler {
	t.Helper()
	cat := catalog.New()
	if loaded {
		cat.Replace(&models.Snapshot{
			ID:              snapshotID,
			PublicationDate: "2024-03-05",
			IngestedAt:      time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
			Records: []models.Record{
				{
					EntryID:       36,
					SDNType:       "Individual",
					EntityType:    models.EntityIndividual,
					PrimaryName:   &models.Name{FullName: "SADDAM HUSSEIN"},
					Aliases:       []models.Alias{{FullName: "ABU ALI", AliasType: "A.K.A.", AliasQuality: models.AliasWeak}},
					Programs:      []string{"IRAQ2"},
					DatesOfBirth:  []string{"1937-04-28"},
					Nationalities: []string{"Iraq"},
				},
				{
					EntryID:     50,
					EntityType:  models.EntityVessel,
					PrimaryName: &models.Name{FullName: "KADDAFFIYAH"},
				},
			},
		})
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(service.New(cat, service.WithLogger(logger)), logger)
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	h.Register(r)
	return r
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		return testutil.DoRequest(router, testutil.NewRequest(t, method, target))
	}
	return testutil.DoRequest(router, testutil.NewJSONRequest(t, method, target, body))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	return *testutil.UnmarshalResponse[T](t, rec)
}

func TestScreen(t *testing.T) {
	router := newRouter(t, true)

	rec := do(t, router, http.MethodGet, "/screen?name=SADDAM+HUSSEIN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestid.Header))

	resp := decode[ScreenResponse](t, rec)
	assert.Equal(t, "SADDAM HUSSEIN", resp.Query)
	assert.Equal(t, 4, resp.Threshold)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, snapshotID.String(), resp.SnapshotID)
	require.Equal(t, 1, resp.TotalHits)
	assert.Equal(t, HitResponse{
		EntryID:          36,
		SDNType:          "Individual",
		EntityType:       "individual",
		PrimaryName:      "SADDAM HUSSEIN",
		MatchedName:      "SADDAM HUSSEIN",
		MatchedPrimary:   true,
		MatchScore:       1,
		EditDistance:     0,
		Programs:         []string{"IRAQ2"},
		LegalAuthorities: []string{},
		DatesOfBirth:     []string{"1937-04-28"},
		Nationalities:    []string{"Iraq"},
	}, resp.Results[0])
}

func TestScreenEncodesEmptyLists(t *testing.T) {
	rec := do(t, newRouter(t, true), http.MethodGet, "/screen?name=Nobody+Here", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestScreenRejectsBadInput(t *testing.T) {
	router := newRouter(t, true)
	for _, target := range []string{
		"/screen",
		"/screen?name=",
		"/screen?name=X&threshold=11",
		"/screen?name=X&threshold=abc",
		"/screen?name=X&limit=0",
		"/screen?name=X&limit=101",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, target, nil)
			testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "validation_error")
		})
	}
}

func TestScreenWithoutSnapshot(t *testing.T) {
	rec := do(t, newRouter(t, false), http.MethodGet, "/screen?name=X", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScreenDocument(t *testing.T) {
	router := newRouter(t, true)
	body := map[string]any{
		"names": []map[string]string{
			{"name": "Sadam Husain", "entity_type": "person"},
			{"name": "Jane Doe"},
		},
		"limit_per_entity": 3,
	}

	rec := do(t, router, http.MethodPost, "/screen/document", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[DocumentScreenResponse](t, rec)
	assert.False(t, resp.DocumentClear)
	assert.Equal(t, 2, resp.TotalEntitiesExtracted)
	assert.Equal(t, 1, resp.TotalMatches)
	require.Len(t, resp.ScreeningResults, 2)
	assert.Equal(t, "Sadam Husain", resp.ScreeningResults[0].Entity)
	assert.Equal(t, "person", resp.ScreeningResults[0].EntityType)
	assert.True(t, resp.ScreeningResults[0].IsMatch)
	assert.Equal(t, 3, resp.ScreeningResults[0].Hits[0].MatchScore)
	assert.False(t, resp.ScreeningResults[1].IsMatch)
	assert.NotNil(t, resp.ScreeningResults[1].Hits)
}

func TestScreenDocumentRejects(t *testing.T) {
	router := newRouter(t, true)
	cases := map[string]struct {
		body   string
		status int
	}{
		"empty body":             {"", http.StatusBadRequest},
		"unknown field":          {`{"names":[{"name":"X"}],"mode":"strict"}`, http.StatusBadRequest},
		"nothing to screen":      {`{"names":[]}`, http.StatusBadRequest},
		"text without extractor": {`{"text":"wire to ABU ALI"}`, http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/screen/document", tc.body))
			testutil.AssertStatus(t, rec, tc.status)
		})
	}
}

func TestEntry(t *testing.T) {
	router := newRouter(t, true)

	rec := do(t, router, http.MethodGet, "/entry/50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Record](t, rec)
	assert.Equal(t, int64(50), got.EntryID)
	assert.Equal(t, "KADDAFFIYAH", got.PrimaryFullName())

	rec = do(t, router, http.MethodGet, "/entry/999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/entry/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(t, newRouter(t, true), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, snapshotID.String(), resp.SnapshotID)
	assert.Equal(t, 2, resp.Records)

	rec = do(t, newRouter(t, false), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no_snapshot", decode[HealthResponse](t, rec).Status)
}
