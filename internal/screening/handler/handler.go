package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sdnscreen/internal/screening/service"
	"sdnscreen/internal/sdn/models"
	dErrors "sdnscreen/pkg/domain-errors"
	"sdnscreen/pkg/platform/httputil"
	"sdnscreen/pkg/requestcontext"
)

// Service defines the screening operations the handler exposes.
type Service interface {
	Screen(ctx context.Context, req service.ScreenRequest) (*service.ScreenResult, error)
	ScreenDocument(ctx context.Context, req service.DocumentRequest) (*service.DocumentResult, error)
	Entry(ctx context.Context, entryID int64) (*models.Record, error)
	Snapshot() (models.SnapshotInfo, bool)
}

// Handler wires screening endpoints to the screening service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the screening endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/screen", h.HandleScreen)
	r.Post("/screen/document", h.HandleScreenDocument)
	r.Get("/entry/{entry_id}", h.HandleEntry)
}

// HandleScreen handles GET /screen?name=&threshold=&limit=.
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, err := parseScreenQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Screen(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "screen failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "name screened",
		"request_id", requestID,
		"threshold", result.Threshold,
		"hits", len(result.Hits),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromScreenResult(result))
}

// HandleScreenDocument handles POST /screen/document.
func (h *Handler) HandleScreenDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[DocumentScreenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ScreenDocument(ctx, req.ToService())
	if err != nil {
		h.logger.WarnContext(ctx, "document screen failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document screened",
		"request_id", requestID,
		"candidates", len(result.Candidates),
		"matches", result.TotalMatches,
		"document_clear", result.DocumentClear,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDocumentResult(result))
}

// HandleEntry handles GET /entry/{entry_id}.
func (h *Handler) HandleEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entry_id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "entry_id must be an integer"))
		return
	}

	rec, err := h.service.Entry(ctx, entryID)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "entry lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"entry_id", entryID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleHealth reports readiness. It answers 503 until a snapshot is loaded.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	info, ok := h.service.Snapshot()
	if !ok {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "no_snapshot"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		SnapshotID:      info.ID.String(),
		PublicationDate: info.PublicationDate,
		IngestedAt:      &info.IngestedAt,
		Records:         info.RecordCount,
	})
}
