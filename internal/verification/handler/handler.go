package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	"certguard/pkg/platform/httputil"
	"certguard/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	Verify(ctx context.Context, in verification.VerifyInput) (verification.VerificationResult, error)
	UpsertVerification(ctx context.Context, documentID id.DocumentID, result verification.VerificationResult, extracted verification.ExtractedPolicyData) (id.VerificationID, error)
	ProcessDocument(ctx context.Context, req verification.ProcessRequest) (*verification.ProcessOutcome, error)
	GetByDocument(ctx context.Context, documentID id.DocumentID) (*verification.Record, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Post("/documents/{documentID}/process", h.HandleProcessDocument)
	r.Post("/documents/{documentID}/verification", h.HandleUpsertVerification)
	r.Get("/documents/{documentID}/verification", h.HandleGetVerification)
}

// HandleVerify handles POST /verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, verification.VerifyInput{
		Extracted:      req.Extracted,
		Requirements:   req.Requirements,
		ProjectEndDate: req.ProjectEndDate,
		ProjectState:   req.ProjectState,
		RegisteredABN:  req.RegisteredABN,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate verified",
		"request_id", requestID,
		"status", result.Status,
		"deficiencies", len(result.Deficiencies),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleProcessDocument handles POST /documents/{documentID}/process requests.
func (h *Handler) HandleProcessDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ProcessDocumentRequest](w, r, h.logger)
	if !ok {
		return
	}

	outcome, err := h.service.ProcessDocument(ctx, verification.ProcessRequest{
		DocumentID:      documentID,
		ProjectID:       req.ParsedProjectID(),
		SubcontractorID: req.ParsedSubcontractorID(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "document processing failed",
			"request_id", requestID,
			"document_id", documentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document processed",
		"request_id", requestID,
		"document_id", documentID,
		"status", outcome.Result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, &ProcessResponse{
		VerificationID: outcome.VerificationID.String(),
		Result:         FromResult(outcome.Result),
	})
}

// HandleUpsertVerification handles POST /documents/{documentID}/verification
// requests. It evaluates the submitted extraction against the requirements in
// the body and stores the outcome under the document, replacing any earlier
// verification.
func (h *Handler) HandleUpsertVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, verification.VerifyInput{
		Extracted:      req.Extracted,
		Requirements:   req.Requirements,
		ProjectEndDate: req.ProjectEndDate,
		ProjectState:   req.ProjectState,
		RegisteredABN:  req.RegisteredABN,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verificationID, err := h.service.UpsertVerification(ctx, documentID, result, req.Extracted)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification upsert failed",
			"request_id", requestID,
			"document_id", documentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &ProcessResponse{
		VerificationID: verificationID.String(),
		Result:         FromResult(result),
	})
}

// HandleGetVerification handles GET /documents/{documentID}/verification requests.
func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.GetByDocument(ctx, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(record))
}
