package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sdnscreen/internal/screening/catalog"
	"sdnscreen/internal/screening/match"
	"sdnscreen/internal/screening/metrics"
	"sdnscreen/internal/screening/service"
	"sdnscreen/internal/screening/service/mocks"
	"sdnscreen/internal/sdn/models"
	dErrors "sdnscreen/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	logger  *slog.Logger
	catalog *catalog.Catalog
	snapID  uuid.UUID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func intPtr(n int) *int { return &n }

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.snapID = uuid.New()
	s.catalog = catalog.New()
	s.catalog.Replace(&models.Snapshot{
		ID:              s.snapID,
		PublicationDate: "2024-03-05",
		IngestedAt:      time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
		Records: []models.Record{
			{
				EntryID:          36,
				SDNType:          "Individual",
				EntityType:       models.EntityIndividual,
				PrimaryName:      &models.Name{FullName: "SADDAM HUSSEIN"},
				Aliases:          []models.Alias{{FullName: "ABU ALI", AliasType: "A.K.A.", AliasQuality: models.AliasWeak}},
				Programs:         []string{"IRAQ2"},
				LegalAuthorities: []string{"Executive Order 13315"},
				DatesOfBirth:     []string{"1937-04-28"},
				Nationalities:    []string{"Iraq"},
			},
			{
				EntryID:     50,
				SDNType:     "Vessel",
				EntityType:  models.EntityVessel,
				PrimaryName: &models.Name{FullName: "KADDAFFIYAH"},
				Programs:    []string{"LIBYA2"},
			},
			{
				EntryID:     60,
				SDNType:     "Entity",
				EntityType:  models.EntityOrganization,
				PrimaryName: &models.Name{FullName: "AL-RASHEED TRADING"},
			},
		},
	})
}

func (s *ServiceSuite) TestScreenExact() {
	svc := service.New(s.catalog, service.WithLogger(s.logger))

	res, err := svc.Screen(s.ctx, service.ScreenRequest{Name: "SADDAM HUSSEIN"})
	s.Require().NoError(err)

	s.Equal("SADDAM HUSSEIN", res.Query)
	s.Equal(service.DefaultThreshold, res.Threshold)
	s.Equal(service.DefaultLimit, res.Limit)
	s.Equal(s.snapID, res.SnapshotID)
	s.Equal("2024-03-05", res.PublicationDate)
	s.Require().NotEmpty(res.Hits)
	s.Equal(service.Hit{
		EntryID:          36,
		SDNType:          "Individual",
		EntityType:       models.EntityIndividual,
		PrimaryName:      "SADDAM HUSSEIN",
		MatchedName:      "SADDAM HUSSEIN",
		MatchedPrimary:   true,
		MatchScore:       match.ScoreExact,
		EditDistance:     0,
		Programs:         []string{"IRAQ2"},
		LegalAuthorities: []string{"Executive Order 13315"},
		DatesOfBirth:     []string{"1937-04-28"},
		Nationalities:    []string{"Iraq"},
	}, res.Hits[0])
}

func (s *ServiceSuite) TestScreenScenarios() {
	svc := service.New(s.catalog)

	s.Run("within threshold", func() {
		res, err := svc.Screen(s.ctx, service.ScreenRequest{Name: "Sadam Husain", Threshold: intPtr(4)})
		s.Require().NoError(err)
		s.Require().Len(res.Hits, 1)
		s.Equal(int64(36), res.Hits[0].EntryID)
		s.Equal(match.ScoreWithin, res.Hits[0].MatchScore)
		s.Equal(3, res.Hits[0].EditDistance)
	})

	s.Run("phonetic fallback", func() {
		res, err := svc.Screen(s.ctx, service.ScreenRequest{Name: "Kadafi", Threshold: intPtr(4)})
		s.Require().NoError(err)
		s.Require().Len(res.Hits, 1)
		s.Equal(int64(50), res.Hits[0].EntryID)
		s.Equal(match.ScorePhonetic, res.Hits[0].MatchScore)
		s.Equal(5, res.Hits[0].EditDistance)
	})

	s.Run("alias hit carries the primary name", func() {
		res, err := svc.Screen(s.ctx, service.ScreenRequest{Name: "abu ali"})
		s.Require().NoError(err)
		s.Require().Len(res.Hits, 1)
		s.Equal("ABU ALI", res.Hits[0].MatchedName)
		s.Equal("SADDAM HUSSEIN", res.Hits[0].PrimaryName)
		s.False(res.Hits[0].MatchedPrimary)
	})

	s.Run("limit keeps the best hits", func() {
		res, err := svc.Screen(s.ctx, service.ScreenRequest{Name: "SADDAM HUSSEIN", Threshold: intPtr(10), Limit: intPtr(1)})
		s.Require().NoError(err)
		s.Require().Len(res.Hits, 1)
		s.Equal(match.ScoreExact, res.Hits[0].MatchScore)
	})
}

func (s *ServiceSuite) TestScreenValidation() {
	svc := service.New(s.catalog)
	cases := []struct {
		name string
		req  service.ScreenRequest
	}{
		{"empty name", service.ScreenRequest{Name: "  "}},
		{"negative threshold", service.ScreenRequest{Name: "X", Threshold: intPtr(-1)}},
		{"threshold above range", service.ScreenRequest{Name: "X", Threshold: intPtr(11)}},
		{"zero limit", service.ScreenRequest{Name: "X", Limit: intPtr(0)}},
		{"limit above range", service.ScreenRequest{Name: "X", Limit: intPtr(101)}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res, err := svc.Screen(s.ctx, tc.req)
			s.Nil(res)
			s.True(dErrors.Is(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestScreenWithoutSnapshot() {
	ctrl := gomock.NewController(s.T())
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().Current().Return(nil)

	_, err := service.New(cat).Screen(s.ctx, service.ScreenRequest{Name: "SADDAM HUSSEIN"})
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestScreenTimeout() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := service.New(s.catalog).Screen(ctx, service.ScreenRequest{Name: "SADDAM HUSSEIN"})
	s.True(dErrors.Is(err, dErrors.CodeTimeout))
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceSuite) TestEntry() {
	svc := service.New(s.catalog)

	rec, err := svc.Entry(s.ctx, 50)
	s.Require().NoError(err)
	s.Equal("KADDAFFIYAH", rec.PrimaryFullName())

	rec, err = svc.Entry(s.ctx, 999999)
	s.Nil(rec)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestScreenDocumentCandidates() {
	svc := service.New(s.catalog)

	res, err := svc.ScreenDocument(s.ctx, service.DocumentRequest{
		Candidates: []service.Candidate{
			{Name: " Saddam Hussein ", EntityType: "person"},
			{Name: "Jane Doe", EntityType: "person"},
		},
		LimitPerEntity: intPtr(1),
	})
	s.Require().NoError(err)

	s.False(res.DocumentClear)
	s.Equal(1, res.TotalMatches)
	s.Equal(s.snapID, res.SnapshotID)
	s.Require().Len(res.Results, 2)
	s.Equal(service.Candidate{Name: "Saddam Hussein", EntityType: "person"}, res.Results[0].Candidate)
	s.True(res.Results[0].IsMatch)
	s.Len(res.Results[0].Hits, 1)
	s.False(res.Results[1].IsMatch)
	s.Empty(res.Results[1].Hits)
}

func (s *ServiceSuite) TestScreenDocumentClear() {
	res, err := service.New(s.catalog).ScreenDocument(s.ctx, service.DocumentRequest{
		Candidates: []service.Candidate{{Name: "Jane Doe"}, {Name: "Acme Widgets"}},
	})
	s.Require().NoError(err)
	s.True(res.DocumentClear)
	s.Zero(res.TotalMatches)
}

func (s *ServiceSuite) TestScreenDocumentExtractor() {
	ctrl := gomock.NewController(s.T())
	extractor := mocks.NewMockExtractor(ctrl)
	text := "Payment to KADDAFFIYAH via broker"
	extractor.EXPECT().Extract(gomock.Any(), text).
		Return([]service.Candidate{{Name: "KADDAFFIYAH", EntityType: "vessel"}}, nil)

	res, err := service.New(s.catalog, service.WithExtractor(extractor)).
		ScreenDocument(s.ctx, service.DocumentRequest{Text: text})
	s.Require().NoError(err)
	s.Equal([]service.Candidate{{Name: "KADDAFFIYAH", EntityType: "vessel"}}, res.Candidates)
	s.False(res.DocumentClear)
}

func (s *ServiceSuite) TestScreenDocumentErrors() {
	ctrl := gomock.NewController(s.T())

	s.Run("text without extractor", func() {
		_, err := service.New(s.catalog).ScreenDocument(s.ctx, service.DocumentRequest{Text: "some text"})
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})

	s.Run("nothing to screen", func() {
		_, err := service.New(s.catalog).ScreenDocument(s.ctx, service.DocumentRequest{})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("blank candidate", func() {
		_, err := service.New(s.catalog).ScreenDocument(s.ctx, service.DocumentRequest{
			Candidates: []service.Candidate{{Name: "SADDAM HUSSEIN"}, {Name: " "}},
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("limit per entity out of range", func() {
		_, err := service.New(s.catalog).ScreenDocument(s.ctx, service.DocumentRequest{
			Candidates:     []service.Candidate{{Name: "SADDAM HUSSEIN"}},
			LimitPerEntity: intPtr(0),
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("extractor failure", func() {
		extractor := mocks.NewMockExtractor(ctrl)
		extractor.EXPECT().Extract(gomock.Any(), "text").Return(nil, errors.New("model overloaded"))
		_, err := service.New(s.catalog, service.WithExtractor(extractor)).
			ScreenDocument(s.ctx, service.DocumentRequest{Text: "text"})
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestMetrics() {
	m := metrics.New(prometheus.NewRegistry())
	svc := service.New(s.catalog, service.WithMetrics(m))

	_, err := svc.Screen(s.ctx, service.ScreenRequest{Name: "SADDAM HUSSEIN"})
	s.Require().NoError(err)
	_, err = svc.Screen(s.ctx, service.ScreenRequest{Name: ""})
	s.Require().Error(err)
	_, err = svc.Entry(s.ctx, 1)
	s.Require().Error(err)

	s.Equal(1.0, testutil.ToFloat64(m.Queries.WithLabelValues(service.OpScreen, "ok")))
	s.Equal(1.0, testutil.ToFloat64(m.Queries.WithLabelValues(service.OpScreen, string(dErrors.CodeValidation))))
	s.Equal(1.0, testutil.ToFloat64(m.Queries.WithLabelValues(service.OpEntry, string(dErrors.CodeNotFound))))
}

func (s *ServiceSuite) TestSnapshot() {
	info, ok := service.New(s.catalog).Snapshot()
	s.True(ok)
	s.Equal(s.snapID, info.ID)
	s.Equal(3, info.RecordCount)

	_, ok = service.New(catalog.New()).Snapshot()
	s.False(ok)
}
