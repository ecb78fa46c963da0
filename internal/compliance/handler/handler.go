package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certguard/internal/compliance"
	id "certguard/pkg/domain"
	"certguard/pkg/platform/httputil"
	"certguard/pkg/requestcontext"
)

// Service defines the interface for compliance operations.
type Service interface {
	Register(ctx context.Context, reg *compliance.ProjectSubcontractor) error
	GetStatus(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*compliance.ProjectSubcontractor, error)
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]compliance.ProjectSubcontractor, error)
	ApplyOutcome(ctx context.Context, in compliance.ApplyInput) (*compliance.Outcome, error)
	GrantException(ctx context.Context, in compliance.GrantExceptionInput) (*compliance.Exception, error)
	ApproveException(ctx context.Context, exceptionID id.ExceptionID) (*compliance.Exception, error)
	CloseException(ctx context.Context, exceptionID id.ExceptionID) (*compliance.Exception, error)
	ListExceptions(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) ([]compliance.Exception, error)
}

// Handler wires compliance endpoints to the compliance service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a compliance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts compliance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/projects/{projectID}/subcontractors/{subcontractorID}", h.HandleRegister)
	r.Get("/projects/{projectID}/subcontractors/{subcontractorID}", h.HandleGetStatus)
	r.Get("/projects/{projectID}/subcontractors", h.HandleListByProject)
	r.Post("/projects/{projectID}/subcontractors/{subcontractorID}/outcome", h.HandleApplyOutcome)
	r.Post("/projects/{projectID}/subcontractors/{subcontractorID}/exceptions", h.HandleGrantException)
	r.Get("/projects/{projectID}/subcontractors/{subcontractorID}/exceptions", h.HandleListExceptions)
	r.Post("/exceptions/{exceptionID}/approve", h.HandleApproveException)
	r.Post("/exceptions/{exceptionID}/close", h.HandleCloseException)
}

func pairParams(r *http.Request) (id.ProjectID, id.SubcontractorID, error) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		return id.ProjectID{}, id.SubcontractorID{}, err
	}
	subcontractorID, err := id.ParseSubcontractorID(chi.URLParam(r, "subcontractorID"))
	if err != nil {
		return id.ProjectID{}, id.SubcontractorID{}, err
	}
	return projectID, subcontractorID, nil
}

// HandleRegister handles PUT /projects/{projectID}/subcontractors/{subcontractorID} requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, subcontractorID, err := pairParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	reg := toRegistration(projectID, subcontractorID, req)
	if err := h.service.Register(ctx, reg); err != nil {
		h.logger.ErrorContext(ctx, "registration failed",
			"project_id", projectID,
			"subcontractor_id", subcontractorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleGetStatus handles GET /projects/{projectID}/subcontractors/{subcontractorID} requests.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, subcontractorID, err := pairParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.GetStatus(ctx, projectID, subcontractorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleListByProject handles GET /projects/{projectID}/subcontractors requests.
func (h *Handler) HandleListByProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	regs, err := h.service.ListByProject(ctx, projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]RegistrationResponse, 0, len(regs))
	for i := range regs {
		out = append(out, *FromRegistration(&regs[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, &ListRegistrationsResponse{Subcontractors: out})
}

// HandleApplyOutcome handles POST /projects/{projectID}/subcontractors/{subcontractorID}/outcome requests.
func (h *Handler) HandleApplyOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	projectID, subcontractorID, err := pairParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ApplyOutcomeRequest](w, r, h.logger)
	if !ok {
		return
	}

	outcome, err := h.service.ApplyOutcome(ctx, compliance.ApplyInput{
		ProjectID:       projectID,
		SubcontractorID: subcontractorID,
		DocumentID:      req.ParsedDocumentID(),
		Result:          req.Result,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "outcome application failed",
			"request_id", requestID,
			"project_id", projectID,
			"subcontractor_id", subcontractorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "outcome applied",
		"request_id", requestID,
		"project_id", projectID,
		"subcontractor_id", subcontractorID,
		"previous_status", outcome.PreviousStatus,
		"new_status", outcome.NewStatus,
	)

	httputil.WriteJSON(w, http.StatusOK, FromOutcome(outcome))
}

// HandleGrantException handles POST /projects/{projectID}/subcontractors/{subcontractorID}/exceptions requests.
func (h *Handler) HandleGrantException(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, subcontractorID, err := pairParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[GrantExceptionRequest](w, r, h.logger)
	if !ok {
		return
	}

	exception, err := h.service.GrantException(ctx, compliance.GrantExceptionInput{
		ProjectID:       projectID,
		SubcontractorID: subcontractorID,
		Reason:          req.Reason,
		GrantedBy:       req.GrantedBy,
		ExpiresAt:       req.ExpiresAt,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromException(exception))
}

// HandleListExceptions handles GET /projects/{projectID}/subcontractors/{subcontractorID}/exceptions requests.
func (h *Handler) HandleListExceptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, subcontractorID, err := pairParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	exceptions, err := h.service.ListExceptions(ctx, projectID, subcontractorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]ExceptionResponse, 0, len(exceptions))
	for i := range exceptions {
		out = append(out, *FromException(&exceptions[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, &ListExceptionsResponse{Exceptions: out})
}

// HandleApproveException handles POST /exceptions/{exceptionID}/approve requests.
func (h *Handler) HandleApproveException(w http.ResponseWriter, r *http.Request) {
	h.transitionException(w, r, h.service.ApproveException)
}

// HandleCloseException handles POST /exceptions/{exceptionID}/close requests.
func (h *Handler) HandleCloseException(w http.ResponseWriter, r *http.Request) {
	h.transitionException(w, r, h.service.CloseException)
}

func (h *Handler) transitionException(w http.ResponseWriter, r *http.Request, op func(context.Context, id.ExceptionID) (*compliance.Exception, error)) {
	ctx := r.Context()

	exceptionID, err := id.ParseExceptionID(chi.URLParam(r, "exceptionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	exception, err := op(ctx, exceptionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromException(exception))
}
