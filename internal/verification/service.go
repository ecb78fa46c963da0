package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"certguard/internal/verification/metrics"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// DefaultMinConfidence is the extraction confidence below which a clean pass
// is floored at review.
const DefaultMinConfidence = 0.7

// Service owns verification: the pure evaluation plus the record lifecycle
// around it. Rule logic stays in rules.go; the service adds input
// validation, collaborator orchestration, persistence, and observability.
type Service struct {
	store         Store
	requirements  RequirementsSource
	projects      ProjectSource
	extractor     Extractor
	outcomes      OutcomeApplier
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
	minConfidence float64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRequirementsSource(src RequirementsSource) Option {
	return func(s *Service) { s.requirements = src }
}

func WithProjectSource(src ProjectSource) Option {
	return func(s *Service) { s.projects = src }
}

func WithExtractor(extractor Extractor) Option {
	return func(s *Service) { s.extractor = extractor }
}

func WithOutcomeApplier(applier OutcomeApplier) Option {
	return func(s *Service) { s.outcomes = applier }
}

func WithMinConfidence(threshold float64) Option {
	return func(s *Service) { s.minConfidence = threshold }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("verification store is required")
	}

	svc := &Service{
		store:         store,
		tracer:        otel.Tracer("certguard/verification"),
		minConfidence: DefaultMinConfidence,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Verify runs the pure engine over already-gathered inputs. The zero Now is
// filled from the request context so handlers don't need to thread clocks.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (VerificationResult, error) {
	if err := in.Extracted.Validate(); err != nil {
		return VerificationResult{}, err
	}
	if in.Now.IsZero() {
		in.Now = requestcontext.Now(ctx)
	}
	if in.MinConfidence == 0 {
		in.MinConfidence = s.minConfidence
	}

	start := time.Now()
	result := Verify(in)
	s.metrics.ObserveVerifyLatency(time.Since(start))
	s.metrics.IncrementOutcome(string(result.Status))
	for _, d := range result.Deficiencies {
		s.metrics.IncrementDeficiency(string(d.Type), string(d.Severity))
	}

	return result, nil
}

// CreateVerification stores a first-time verification for a document. A
// record already present is a conflict; re-processing callers must use
// UpsertVerification.
func (s *Service) CreateVerification(ctx context.Context, documentID id.DocumentID, result VerificationResult, extracted ExtractedPolicyData) (id.VerificationID, error) {
	if documentID.IsNil() {
		return id.VerificationID{}, dErrors.New(dErrors.CodeBadRequest, "document_id is required")
	}

	record := &Record{
		ID:         id.NewVerificationID(),
		DocumentID: documentID,
		Result:     result,
		Extracted:  extracted,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, record); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return id.VerificationID{}, err
		}
		return id.VerificationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification")
	}
	return record.ID, nil
}

// UpsertVerification stores a verification result, replacing any existing
// record for the document. This is the idempotent path re-processing flows
// use.
func (s *Service) UpsertVerification(ctx context.Context, documentID id.DocumentID, result VerificationResult, extracted ExtractedPolicyData) (id.VerificationID, error) {
	if documentID.IsNil() {
		return id.VerificationID{}, dErrors.New(dErrors.CodeBadRequest, "document_id is required")
	}

	ctx, span := s.tracer.Start(ctx, "verification.upsert",
		trace.WithAttributes(attribute.String("document_id", documentID.String())))
	defer span.End()

	verificationID, err := s.store.Upsert(ctx, &Record{
		DocumentID: documentID,
		Result:     result,
		Extracted:  extracted,
	})
	if err != nil {
		return id.VerificationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert verification")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "verification stored",
			"document_id", documentID,
			"verification_id", verificationID,
			"status", result.Status,
			"deficiencies", len(result.Deficiencies),
		)
	}
	return verificationID, nil
}

// GetByDocument returns the stored verification for a document.
func (s *Service) GetByDocument(ctx context.Context, documentID id.DocumentID) (*Record, error) {
	if documentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document_id is required")
	}
	return s.store.GetByDocument(ctx, documentID)
}

// ProcessRequest identifies a document and the (project, subcontractor) pair
// it was uploaded against.
type ProcessRequest struct {
	DocumentID      id.DocumentID
	ProjectID       id.ProjectID
	SubcontractorID id.SubcontractorID
}

// ProcessOutcome bundles everything the downstream compliance step needs.
type ProcessOutcome struct {
	VerificationID id.VerificationID
	Result         VerificationResult
	Context        *ProjectContext
}

// ProcessDocument runs the full document pipeline: extraction, parallel
// gathering of the project's requirement set and configuration, pure
// evaluation, and the idempotent upsert. Extraction failures propagate typed
// to the caller, which owns retry policy.
func (s *Service) ProcessDocument(ctx context.Context, req ProcessRequest) (*ProcessOutcome, error) {
	if s.extractor == nil || s.requirements == nil || s.projects == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "document processing requires extractor, requirements, and project sources")
	}
	if req.DocumentID.IsNil() || req.ProjectID.IsNil() || req.SubcontractorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document_id, project_id, and subcontractor_id are required")
	}

	ctx, span := s.tracer.Start(ctx, "verification.process",
		trace.WithAttributes(
			attribute.String("document_id", req.DocumentID.String()),
			attribute.String("project_id", req.ProjectID.String()),
		))
	defer span.End()

	start := time.Now()

	extracted, err := s.extractor.Extract(ctx, req.DocumentID)
	if err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "extraction service failed")
	}

	// Requirements and project configuration come from independent stores;
	// fetch them concurrently with shared cancellation.
	var (
		requirements []CoverageRequirement
		projectCtx   *ProjectContext
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requirements, err = s.requirements.ListByProject(gctx, req.ProjectID)
		return err
	})
	g.Go(func() error {
		var err error
		projectCtx, err = s.projects.GetProjectContext(gctx, req.ProjectID, req.SubcontractorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather project configuration")
	}

	result, err := s.Verify(ctx, VerifyInput{
		Extracted:      *extracted,
		Requirements:   requirements,
		Now:            requestcontext.Now(ctx),
		ProjectEndDate: projectCtx.ProjectEndDate,
		ProjectState:   projectCtx.ProjectState,
		RegisteredABN:  projectCtx.RegisteredABN,
	})
	if err != nil {
		return nil, err
	}

	verificationID, err := s.UpsertVerification(ctx, req.DocumentID, result, *extracted)
	if err != nil {
		return nil, err
	}

	// Downstream compliance failures are the applier's to report; the
	// verification record above is already durable either way.
	if s.outcomes != nil {
		if err := s.outcomes.ApplyOutcome(ctx, req.ProjectID, req.SubcontractorID, req.DocumentID, result); err != nil {
			return nil, err
		}
	}

	s.metrics.ObserveProcessLatency(time.Since(start))

	return &ProcessOutcome{
		VerificationID: verificationID,
		Result:         result,
		Context:        projectCtx,
	}, nil
}
