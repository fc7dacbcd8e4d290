// Package handler exposes the matching façade over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
	"schemematch/pkg/platform/httputil"
	"schemematch/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service is the matching façade the handlers call.
type Service interface {
	FindEligible(ctx context.Context, profile *models.Profile, asOf time.Time) ([]models.MatchResult, error)
	ExplainGaps(ctx context.Context, profile *models.Profile, asOf time.Time, limit int) ([]models.Gap, error)
	MapFields(ctx context.Context, programID string, profile *models.Profile) (models.MappingResult, error)
	Validate(ctx context.Context, programID string, result models.MappingResult) ([]models.Violation, error)
	RequiredDocuments(ctx context.Context, programID string) ([]string, error)
	Snapshot() *catalog.Snapshot
}

// Refresher reloads the catalog on demand.
type Refresher interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

// Handler wires scheme endpoints to the service.
type Handler struct {
	service   Service
	refresher Refresher
	logger    *slog.Logger
}

// New constructs a scheme handler. refresher may be nil when the catalog is
// static, in which case the admin refresh route reports unavailable.
func New(service Service, refresher Refresher, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		refresher: refresher,
		logger:    logger,
	}
}

// Register mounts the public scheme endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/schemes/eligible", h.HandleEligible)
	r.Post("/schemes/gaps", h.HandleGaps)
	r.Get("/schemes/catalog", h.HandleCatalog)
	r.Post("/schemes/{programID}/fields", h.HandleMapFields)
	r.Post("/schemes/{programID}/validate", h.HandleValidate)
	r.Get("/schemes/{programID}/documents", h.HandleDocuments)
}

// RegisterAdmin mounts operator endpoints. The caller applies authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/catalog/refresh", h.HandleRefresh)
}

// HandleEligible handles POST /schemes/eligible.
func (h *Handler) HandleEligible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	asOf := req.asOfOr(requestcontext.Now(ctx))

	results, err := h.service.FindEligible(ctx, req.Profile, asOf)
	if err != nil {
		h.fail(ctx, w, "find eligible failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EligibleFrom(results, asOf))
}

// HandleGaps handles POST /schemes/gaps.
func (h *Handler) HandleGaps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GapsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	asOf := req.asOfOr(requestcontext.Now(ctx))

	gaps, err := h.service.ExplainGaps(ctx, req.Profile, asOf, req.Limit)
	if err != nil {
		h.fail(ctx, w, "explain gaps failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GapsFrom(gaps, asOf))
}

// HandleMapFields handles POST /schemes/{programID}/fields.
func (h *Handler) HandleMapFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	programID, err := programIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[MapFieldsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.MapFields(ctx, programID, req.Profile)
	if err != nil {
		h.fail(ctx, w, "map fields failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MappingFrom(result))
}

// HandleValidate handles POST /schemes/{programID}/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	programID, err := programIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	violations, err := h.service.Validate(ctx, programID, req.toResult(programID))
	if err != nil {
		h.fail(ctx, w, "validate mapping failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidateFrom(violations))
}

// HandleDocuments handles GET /schemes/{programID}/documents.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	programID, err := programIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	docs, err := h.service.RequiredDocuments(ctx, programID)
	if err != nil {
		h.fail(ctx, w, "list documents failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DocumentsResponse{ProgramID: programID, Documents: nonNil(docs)})
}

// HandleCatalog handles GET /schemes/catalog.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	asOf := requestcontext.Now(r.Context())
	httputil.WriteJSON(w, http.StatusOK, CatalogFrom(h.service.Snapshot(), asOf))
}

// HandleRefresh handles POST /admin/catalog/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	if h.refresher == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "catalog refresh is not configured"))
		return
	}

	snap, err := h.refresher.Refresh(ctx)
	if err != nil {
		h.fail(ctx, w, "catalog refresh failed", err)
		return
	}

	h.logger.InfoContext(ctx, "catalog refreshed on demand",
		"request_id", requestcontext.RequestID(ctx),
		"actor", requestcontext.Actor(ctx),
		"catalog_version", snap.Version(),
		"source", snap.Source(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, CatalogFrom(snap, requestcontext.Now(ctx)))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"code", string(dErrors.CodeOf(err)),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func programIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "programID"))
	if id == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "program id is required")
	}
	if len(id) > maxIDLength {
		return "", dErrors.Newf(dErrors.CodeValidation, "program id must be at most %d characters", maxIDLength)
	}
	return id, nil
}
