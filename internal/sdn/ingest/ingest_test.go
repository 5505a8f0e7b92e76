package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sdnscreen/internal/sdn/ingest"
	"sdnscreen/internal/sdn/ingest/mocks"
	"sdnscreen/internal/sdn/lookup"
	"sdnscreen/internal/sdn/metrics"
	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/sdntest"
	"sdnscreen/internal/sdn/source"
	"sdnscreen/internal/sdn/store"
	"sdnscreen/pkg/requestcontext"
)

type PipelineSuite struct {
	suite.Suite
	ctx      context.Context
	sample   []byte
	ingested time.Time
	logger   *slog.Logger
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupSuite() {
	s.ingested = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.ingested)
	s.sample = sdntest.SampleBytes(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *PipelineSuite) TestRunSample() {
	ctrl := gomock.NewController(s.T())
	notifier := mocks.NewMockNotifier(ctrl)
	mem := store.NewMemory()
	m := metrics.New(prometheus.NewRegistry())

	notifier.EXPECT().SnapshotPublished(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, info models.SnapshotInfo) error {
			s.Equal(5, info.RecordCount)
			s.Equal("2024-03-05", info.PublicationDate)
			return nil
		})

	p := ingest.New(mem,
		ingest.WithLogger(s.logger),
		ingest.WithMetrics(m),
		ingest.WithNotifier(notifier),
		ingest.WithWorkers(4),
	)
	summary, err := p.Run(s.ctx, bytes.NewReader(s.sample), "file://sample.xml")
	s.Require().NoError(err)

	s.Equal(6, summary.PartiesSeen)
	s.Equal(5, summary.RecordsEmitted)
	s.Equal(1, summary.Rejected)
	s.Equal("2024-03-05", summary.PublicationDate)
	s.Equal(s.ingested, summary.IngestedAt)
	s.Equal([]string{"ReliabilityValues"}, summary.IgnoredCategories)
	s.Equal(models.WarningCounts{
		models.WarnMalformedLocation:       1,
		models.WarnMalformedDocument:       1,
		models.WarnMalformedSanctionsEntry: 1,
		models.WarnUnknownFeatureType:      1,
		models.WarnDanglingLocation:        1,
		models.WarnDanglingDocument:        2,
		models.WarnUnknownSubtype:          1,
		models.WarnRejectedParty:           1,
	}, summary.Warnings)
	for _, phase := range []string{ingest.PhaseDecode, ingest.PhaseLookups, ingest.PhaseResolve, ingest.PhaseDenormalize, ingest.PhasePublish} {
		s.Contains(summary.Durations, phase)
	}

	snap, err := mem.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(summary.SnapshotID, snap.ID)
	s.Equal([]int64{36, 50, 60, 70, 80}, entryIDs(snap.Records), "input order")
	for _, r := range snap.Records {
		s.Equal(s.ingested, r.IngestionTimestamp)
		s.Equal("file://sample.xml", r.SourceURL)
	}

	s.InDelta(5, testutil.ToFloat64(m.RecordsPublished), 0)
	s.InDelta(1, testutil.ToFloat64(m.Runs.WithLabelValues("published")), 0)
	s.InDelta(2, testutil.ToFloat64(m.Warnings.WithLabelValues(string(models.WarnDanglingDocument))), 0)
}

func (s *PipelineSuite) TestOutputIndependentOfWorkerCount() {
	var outputs [][]models.Record
	for _, workers := range []int{1, 3, 16} {
		mem := store.NewMemory()
		_, err := ingest.New(mem, ingest.WithLogger(s.logger), ingest.WithWorkers(workers)).
			Run(s.ctx, bytes.NewReader(s.sample), "file://sample.xml")
		s.Require().NoError(err)
		snap, err := mem.Load(s.ctx)
		s.Require().NoError(err)
		outputs = append(outputs, snap.Records)
	}
	s.Equal(outputs[0], outputs[1])
	s.Equal(outputs[0], outputs[2])
}

func (s *PipelineSuite) TestStructuralErrorsPreventPublish() {
	cases := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"malformed xml", `<Sanctions><ReferenceValueSets>`, source.ErrMalformed},
		{"missing parties", `<Sanctions><ReferenceValueSets/></Sanctions>`, source.ErrMissingSection},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			ctrl := gomock.NewController(s.T())
			publisher := mocks.NewMockPublisher(ctrl)
			notifier := mocks.NewMockNotifier(ctrl)

			_, err := ingest.New(publisher, ingest.WithLogger(s.logger), ingest.WithNotifier(notifier)).
				Run(s.ctx, strings.NewReader(tc.body), "")
			s.ErrorIs(err, ingest.ErrStructural)
			s.ErrorIs(err, tc.wantErr)
		})
	}
}

func (s *PipelineSuite) TestDuplicateLookupIDPreventsPublish() {
	body := `<Sanctions>
  <ReferenceValueSets>
    <AliasTypeValues>
      <AliasType ID="1">A.K.A.</AliasType>
      <AliasType ID="1">F.K.A.</AliasType>
    </AliasTypeValues>
  </ReferenceValueSets>
  <DistinctParties/>
</Sanctions>`
	ctrl := gomock.NewController(s.T())
	publisher := mocks.NewMockPublisher(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	_, err := ingest.New(publisher, ingest.WithLogger(s.logger), ingest.WithMetrics(m)).
		Run(s.ctx, strings.NewReader(body), "")
	s.ErrorIs(err, lookup.ErrDuplicateID)
	s.InDelta(1, testutil.ToFloat64(m.Runs.WithLabelValues("failed")), 0)
}

func (s *PipelineSuite) TestPublishFailureSkipsNotification() {
	ctrl := gomock.NewController(s.T())
	publisher := mocks.NewMockPublisher(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := ingest.New(publisher, ingest.WithLogger(s.logger), ingest.WithNotifier(notifier)).
		Run(s.ctx, bytes.NewReader(s.sample), "")
	s.Require().Error(err)
	s.Contains(err.Error(), "publish snapshot")
}

func (s *PipelineSuite) TestNotifierFailureDoesNotFailRun() {
	ctrl := gomock.NewController(s.T())
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().SnapshotPublished(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	mem := store.NewMemory()

	summary, err := ingest.New(mem, ingest.WithLogger(s.logger), ingest.WithNotifier(notifier)).
		Run(s.ctx, bytes.NewReader(s.sample), "")
	s.Require().NoError(err)

	id, err := mem.ActiveID(s.ctx)
	s.Require().NoError(err)
	s.Equal(summary.SnapshotID, id)
}

func (s *PipelineSuite) TestCancelledContext() {
	ctrl := gomock.NewController(s.T())
	publisher := mocks.NewMockPublisher(ctrl)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := ingest.New(publisher, ingest.WithLogger(s.logger)).
		Run(ctx, bytes.NewReader(s.sample), "")
	s.ErrorIs(err, context.Canceled)
}

func (s *PipelineSuite) TestDuplicateEntryIDKeepsFirst() {
	body := `<Sanctions>
  <ReferenceValueSets/>
  <DistinctParties>
    <DistinctParty FixedRef="1"><Profile ID="1"><Identity ID="1"><Alias Primary="true"><DocumentedName><DocumentedNamePart><NamePartValue>FIRST</NamePartValue></DocumentedNamePart></DocumentedName></Alias></Identity></Profile></DistinctParty>
    <DistinctParty FixedRef="1"><Profile ID="2"><Identity ID="2"><Alias Primary="true"><DocumentedName><DocumentedNamePart><NamePartValue>SECOND</NamePartValue></DocumentedNamePart></DocumentedName></Alias></Identity></Profile></DistinctParty>
  </DistinctParties>
</Sanctions>`
	mem := store.NewMemory()
	summary, err := ingest.New(mem, ingest.WithLogger(s.logger)).Run(s.ctx, strings.NewReader(body), "")
	s.Require().NoError(err)

	s.Equal(1, summary.RecordsEmitted)
	s.Equal(1, summary.Warnings[models.WarnDuplicateObject])
	rec, err := mem.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("FIRST", rec.PrimaryFullName())
}

func entryIDs(records []models.Record) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.EntryID
	}
	return ids
}

func TestNewDefaultsWorkers(t *testing.T) {
	p := ingest.New(store.NewMemory(), ingest.WithWorkers(0))
	summary, err := p.Run(context.Background(), strings.NewReader(`<Sanctions><ReferenceValueSets/><DistinctParties/></Sanctions>`), "")
	require.NoError(t, err)
	assert.Zero(t, summary.RecordsEmitted)
}
