package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	"certguard/pkg/platform/httputil"
	"certguard/pkg/requestcontext"
)

// Service defines the interface for requirement configuration operations.
type Service interface {
	Upsert(ctx context.Context, req *verification.CoverageRequirement) error
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]verification.CoverageRequirement, error)
	Delete(ctx context.Context, projectID id.ProjectID, requirementID id.RequirementID) error
}

// Handler wires requirement configuration endpoints to the requirements
// service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a requirements handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts requirement endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects/{projectID}/requirements", h.HandleUpsert)
	r.Get("/projects/{projectID}/requirements", h.HandleList)
	r.Delete("/projects/{projectID}/requirements/{requirementID}", h.HandleDelete)
}

// HandleUpsert handles POST /projects/{projectID}/requirements requests.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpsertRequirementRequest](w, r, h.logger)
	if !ok {
		return
	}

	requirement := verification.CoverageRequirement{
		ProjectID:              projectID,
		CoverageType:           req.ParsedCoverageType(),
		MinimumLimit:           req.MinimumLimit,
		LimitType:              verification.LimitType(req.LimitType),
		MaximumExcess:          req.MaximumExcess,
		PrincipalIndemnityReq:  req.PrincipalIndemnityReq,
		CrossLiabilityReq:      req.CrossLiabilityReq,
		WaiverOfSubrogationReq: req.WaiverOfSubrogationReq,
		PrincipalNamingReq:     req.PrincipalNamingReq,
	}
	if req.ID != "" {
		requirementID, err := id.ParseRequirementID(req.ID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		requirement.ID = requirementID
	}

	if err := h.service.Upsert(ctx, &requirement); err != nil {
		h.logger.ErrorContext(ctx, "requirement upsert failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRequirement(requirement))
}

// HandleList handles GET /projects/{projectID}/requirements requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	requirements, err := h.service.ListByProject(ctx, projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRequirements(requirements))
}

// HandleDelete handles DELETE /projects/{projectID}/requirements/{requirementID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requirementID, err := id.ParseRequirementID(chi.URLParam(r, "requirementID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, projectID, requirementID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
