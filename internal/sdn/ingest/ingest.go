// Package ingest runs the two-pass denormalization of one source publication
// and publishes the result as a new snapshot.
//
// Pass 1 builds the lookup tables and then the shared-object maps. Nothing in
// Pass 2 starts until Pass 1 has finished, so workers only ever read frozen
// maps. Pass 2 denormalizes parties on a bounded worker pool; each worker
// writes to its own slot of the output slice and the slots are compacted in
// input order afterwards.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"sdnscreen/internal/sdn/denormalize"
	"sdnscreen/internal/sdn/lookup"
	"sdnscreen/internal/sdn/metrics"
	"sdnscreen/internal/sdn/models"
	"sdnscreen/internal/sdn/resolve"
	"sdnscreen/internal/sdn/sanitize"
	"sdnscreen/internal/sdn/source"
	"sdnscreen/pkg/requestcontext"
)

var tracer = otel.Tracer("sdnscreen/sdn/ingest")

// ErrStructural means the source could not be parsed as a publication at all.
// Nothing is published.
var ErrStructural = errors.New("structural source error")

// Phase names used for durations, spans and metrics.
const (
	PhaseDecode      = "decode"
	PhaseLookups     = "lookups"
	PhaseResolve     = "resolve"
	PhaseDenormalize = "denormalize"
	PhasePublish     = "publish"
)

//go:generate mockgen -source=ingest.go -destination=mocks/ingest-mocks.go -package=mocks Publisher,Notifier
type Publisher interface {
	Publish(ctx context.Context, snap *models.Snapshot) error
}

type Notifier interface {
	SnapshotPublished(ctx context.Context, info models.SnapshotInfo) error
}

// Summary reports one completed run.
type Summary struct {
	SnapshotID        uuid.UUID                `json:"snapshot_id"`
	PublicationDate   string                   `json:"publication_date,omitempty"`
	IngestedAt        time.Time                `json:"ingested_at"`
	SourceURL         string                   `json:"source_url,omitempty"`
	PartiesSeen       int                      `json:"parties_seen"`
	RecordsEmitted    int                      `json:"records_emitted"`
	Rejected          int                      `json:"rejected"`
	Warnings          models.WarningCounts     `json:"warnings"`
	IgnoredCategories []string                 `json:"ignored_categories,omitempty"`
	Durations         map[string]time.Duration `json:"durations"`
}

type Pipeline struct {
	publisher Publisher
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	workers   int
}

type Option func(p *Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = n
	}
}

// WithWorkers bounds Pass 2 concurrency. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

func New(publisher Publisher, opts ...Option) *Pipeline {
	p := &Pipeline{publisher: publisher}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.workers < 1 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Run ingests one publication read from r. Every record of the run carries
// the request time of ctx (requestcontext.Now) as its ingestion timestamp.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, sourceURL string) (*Summary, error) {
	ctx, span := tracer.Start(ctx, "ingest-run",
		trace.WithAttributes(attribute.String("sdn.source_url", sourceURL)))
	defer span.End()

	summary, err := p.run(ctx, r, sourceURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion failed")
		p.metrics.RecordFailure()
		p.logger.ErrorContext(ctx, "ingestion failed", "source_url", sourceURL, "error", err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("sdn.snapshot_id", summary.SnapshotID.String()),
		attribute.Int("sdn.records", summary.RecordsEmitted),
		attribute.Int("sdn.rejected", summary.Rejected),
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, r io.Reader, sourceURL string) (*Summary, error) {
	summary := &Summary{
		SnapshotID: uuid.New(),
		IngestedAt: requestcontext.Now(ctx).UTC(),
		SourceURL:  sourceURL,
		Warnings:   models.WarningCounts{},
		Durations:  map[string]time.Duration{},
	}

	var doc *source.Document
	err := p.phase(ctx, summary, PhaseDecode, func(context.Context) error {
		var err error
		doc, err = source.Decode(r)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStructural, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary.PublicationDate = doc.DateOfIssue
	summary.PartiesSeen = len(doc.DistinctParties)

	var lookups *models.Lookups
	err = p.phase(ctx, summary, PhaseLookups, func(ctx context.Context) error {
		var err error
		lookups, summary.IgnoredCategories, err = lookup.Build(ctx, doc.ReferenceSets)
		return err
	})
	if err != nil {
		return nil, err
	}

	var shared *resolve.Shared
	err = p.phase(ctx, summary, PhaseResolve, func(ctx context.Context) error {
		var warnings []models.Warning
		var err error
		shared, warnings, err = resolve.BuildAll(ctx, doc, lookups)
		p.record(ctx, summary, warnings)
		return err
	})
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		ID:              summary.SnapshotID,
		PublicationDate: summary.PublicationDate,
		IngestedAt:      summary.IngestedAt,
		SourceURL:       sourceURL,
	}
	err = p.phase(ctx, summary, PhaseDenormalize, func(ctx context.Context) error {
		d := denormalize.New(lookups, shared, denormalize.RunMeta{
			PublicationDate: summary.PublicationDate,
			IngestedAt:      summary.IngestedAt,
			SourceURL:       sourceURL,
		})
		var err error
		snap.Records, err = p.denormalize(ctx, summary, d, doc.DistinctParties)
		return err
	})
	if err != nil {
		return nil, err
	}
	summary.RecordsEmitted = len(snap.Records)
	summary.Rejected = summary.Warnings[models.WarnRejectedParty]

	err = p.phase(ctx, summary, PhasePublish, func(ctx context.Context) error {
		if err := p.publisher.Publish(ctx, snap); err != nil {
			return fmt.Errorf("publish snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.metrics.RecordPublished(summary.RecordsEmitted, summary.Warnings, summary.IngestedAt)
	p.logSummary(ctx, summary)

	if p.notifier != nil {
		if err := p.notifier.SnapshotPublished(ctx, snap.Info()); err != nil {
			p.logger.WarnContext(ctx, "snapshot announcement failed",
				"snapshot_id", snap.ID, "error", err)
		}
	}
	return summary, nil
}

// denormalize is Pass 2. Rejected parties and duplicate entry IDs are dropped
// with a warning; the run continues.
func (p *Pipeline) denormalize(ctx context.Context, summary *Summary, d *denormalize.Denormalizer, parties []source.DistinctParty) ([]models.Record, error) {
	type slot struct {
		rec      models.Record
		ok       bool
		warnings []models.Warning
	}
	slots := make([]slot, len(parties))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range parties {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, warnings, err := d.Party(parties[i])
			if err != nil {
				slots[i].warnings = append(warnings, models.Warning{
					Kind:    models.WarnRejectedParty,
					Subject: "party #" + strconv.Itoa(i),
					Ref:     err.Error(),
				})
				return nil
			}
			slots[i] = slot{rec: sanitize.Record(rec), ok: true, warnings: warnings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(parties))
	seen := make(map[int64]struct{}, len(parties))
	for i := range slots {
		p.record(ctx, summary, slots[i].warnings)
		if !slots[i].ok {
			continue
		}
		id := slots[i].rec.EntryID
		if _, dup := seen[id]; dup {
			p.record(ctx, summary, []models.Warning{{
				Kind:    models.WarnDuplicateObject,
				Subject: strconv.FormatInt(id, 10),
				Ref:     "DistinctParty",
			}})
			continue
		}
		seen[id] = struct{}{}
		records = append(records, slots[i].rec)
	}
	return records, nil
}

func (p *Pipeline) phase(ctx context.Context, summary *Summary, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "ingest-"+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	summary.Durations[name] = elapsed
	p.metrics.ObservePhase(name, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}
	return err
}

func (p *Pipeline) record(ctx context.Context, summary *Summary, warnings []models.Warning) {
	for _, w := range warnings {
		p.logger.WarnContext(ctx, "resolution gap",
			"kind", w.Kind,
			"subject", w.Subject,
			"ref", w.Ref,
		)
	}
	summary.Warnings.Add(warnings...)
}

func (p *Pipeline) logSummary(ctx context.Context, s *Summary) {
	attrs := []any{
		"snapshot_id", s.SnapshotID,
		"publication_date", s.PublicationDate,
		"parties_seen", s.PartiesSeen,
		"records_emitted", s.RecordsEmitted,
		"rejected", s.Rejected,
		"warnings", s.Warnings.Total(),
	}
	for _, kind := range s.Warnings.Kinds() {
		attrs = append(attrs, "warnings_"+string(kind), s.Warnings[kind])
	}
	if len(s.IgnoredCategories) > 0 {
		attrs = append(attrs, "ignored_categories", s.IgnoredCategories)
	}
	p.logger.InfoContext(ctx, "snapshot published", attrs...)
}
