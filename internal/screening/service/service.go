// Package service answers screening queries against the loaded snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sdnscreen/internal/screening/catalog"
	"sdnscreen/internal/screening/match"
	"sdnscreen/internal/screening/metrics"
	"sdnscreen/internal/sdn/models"
	dErrors "sdnscreen/pkg/domain-errors"
	"sdnscreen/pkg/requestcontext"
)

// Operation names used in logs and metrics.
const (
	OpScreen   = "screen"
	OpDocument = "document"
	OpEntry    = "entry"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks Catalog,Extractor
type Catalog interface {
	Current() *catalog.View
}

// Extractor pulls candidate names out of free text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Candidate, error)
}

type Service struct {
	catalog      Catalog
	extractor    Extractor
	logger       *slog.Logger
	metrics      *metrics.Metrics
	queryTimeout time.Duration
}

type Option func(*Service)

func WithExtractor(e Extractor) Option {
	return func(s *Service) {
		s.extractor = e
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithQueryTimeout bounds each operation. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.queryTimeout = d
	}
}

func New(c Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen runs one fuzzy screen.
func (s *Service) Screen(ctx context.Context, req ScreenRequest) (result *ScreenResult, err error) {
	defer s.observe(ctx, OpScreen, time.Now(), &err)

	q, err := req.normalize()
	if err != nil {
		return nil, err
	}
	view, err := s.view()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	hits, err := s.match(ctx, view, q)
	if err != nil {
		return nil, err
	}
	return &ScreenResult{
		Query:           q.name,
		Threshold:       q.threshold,
		Limit:           q.limit,
		SnapshotID:      view.Info.ID,
		PublicationDate: view.Info.PublicationDate,
		Hits:            hits,
	}, nil
}

// Entry returns the full record for entryID.
func (s *Service) Entry(ctx context.Context, entryID int64) (rec *models.Record, err error) {
	defer s.observe(ctx, OpEntry, time.Now(), &err)

	view, err := s.view()
	if err != nil {
		return nil, err
	}
	rec, ok := view.Entry(entryID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("entry %d not found", entryID))
	}
	return rec, nil
}

// ScreenDocument screens each candidate name independently against one view.
// The document is clear only when no candidate has a hit.
func (s *Service) ScreenDocument(ctx context.Context, req DocumentRequest) (result *DocumentResult, err error) {
	defer s.observe(ctx, OpDocument, time.Now(), &err)

	threshold := DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > MaxThreshold {
		return nil, dErrors.New(dErrors.CodeValidation, "threshold must be between 0 and 10")
	}
	limit := DefaultLimitPerEntity
	if req.LimitPerEntity != nil {
		limit = *req.LimitPerEntity
	}
	if limit < 1 || limit > MaxLimit {
		return nil, dErrors.New(dErrors.CodeValidation, "limit_per_entity must be between 1 and 100")
	}
	view, err := s.view()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	candidates, err := s.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	queries := make([]screenQuery, len(candidates))
	for i, c := range candidates {
		if c.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("candidate %d: name is required", i))
		}
		queries[i] = screenQuery{name: c.Name, threshold: threshold, limit: limit}
	}

	result = &DocumentResult{
		Candidates:      candidates,
		Results:         make([]CandidateResult, 0, len(candidates)),
		DocumentClear:   true,
		SnapshotID:      view.Info.ID,
		PublicationDate: view.Info.PublicationDate,
	}
	for i, q := range queries {
		hits, err := s.match(ctx, view, q)
		if err != nil {
			return nil, err
		}
		matched := len(hits) > 0
		if matched {
			result.TotalMatches++
			result.DocumentClear = false
		}
		result.Results = append(result.Results, CandidateResult{
			Candidate: candidates[i],
			IsMatch:   matched,
			Hits:      hits,
		})
	}
	return result, nil
}

func (s *Service) candidates(ctx context.Context, req DocumentRequest) ([]Candidate, error) {
	candidates := req.Candidates
	if len(candidates) == 0 {
		if strings.TrimSpace(req.Text) == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "candidates or text is required")
		}
		if s.extractor == nil {
			return nil, dErrors.New(dErrors.CodeUnavailable, "name extraction is not configured")
		}
		extracted, err := s.extractor.Extract(ctx, req.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "name extraction timed out")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "name extraction failed")
		}
		candidates = extracted
	}
	if len(candidates) > MaxCandidates {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d candidates may be screened", MaxCandidates))
	}
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = Candidate{Name: strings.TrimSpace(c.Name), EntityType: strings.TrimSpace(c.EntityType)}
	}
	return out, nil
}

// Snapshot describes the loaded snapshot. ok is false before the first load.
func (s *Service) Snapshot() (info models.SnapshotInfo, ok bool) {
	v := s.catalog.Current()
	if v == nil {
		return models.SnapshotInfo{}, false
	}
	return v.Info, true
}

func (s *Service) view() (*catalog.View, error) {
	v := s.catalog.Current()
	if v == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "no snapshot loaded")
	}
	return v, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Service) match(ctx context.Context, view *catalog.View, q screenQuery) ([]Hit, error) {
	found, err := match.Match(ctx, view.Index, match.Query{
		Name:      q.name,
		Threshold: q.threshold,
		Limit:     q.limit,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "screening query timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "screening query failed")
	}
	s.metrics.ObserveHits(len(found))

	hits := make([]Hit, 0, len(found))
	for _, h := range found {
		rec := view.Record(h.Record)
		hits = append(hits, Hit{
			EntryID:          rec.EntryID,
			SDNType:          rec.SDNType,
			EntityType:       rec.EntityType,
			PrimaryName:      rec.PrimaryFullName(),
			MatchedName:      h.Text,
			MatchedPrimary:   h.Primary,
			MatchScore:       h.Score,
			EditDistance:     h.Distance,
			Programs:         rec.Programs,
			LegalAuthorities: rec.LegalAuthorities,
			DatesOfBirth:     rec.DatesOfBirth,
			Nationalities:    rec.Nationalities,
		})
	}
	return hits, nil
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, errp *error) {
	outcome := "ok"
	if err := *errp; err != nil {
		outcome = string(dErrors.CodeInternal)
		if de, ok := dErrors.From(err); ok {
			outcome = string(de.Code)
		}
		if outcome == string(dErrors.CodeInternal) || outcome == string(dErrors.CodeTimeout) {
			s.logger.ErrorContext(ctx, "screening operation failed",
				"operation", op,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
	s.metrics.ObserveQuery(op, outcome, time.Since(start))
}
