package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"certguard/internal/audit"
	"certguard/internal/communication"
	"certguard/internal/compliance/metrics"
	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// Service owns compliance standing: it applies verification outcomes,
// manages the exception lifecycle, and raises the resulting communications.
type Service struct {
	exceptions    ExceptionStore
	registrations ProjectSubcontractorStore
	dispatcher    communication.Dispatcher
	auditor       AuditPublisher
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
}

type Option func(*Service)

func WithDispatcher(d communication.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(exceptions ExceptionStore, registrations ProjectSubcontractorStore, opts ...Option) (*Service, error) {
	if exceptions == nil {
		return nil, fmt.Errorf("exception store is required")
	}
	if registrations == nil {
		return nil, fmt.Errorf("project subcontractor store is required")
	}

	svc := &Service{
		exceptions:    exceptions,
		registrations: registrations,
		tracer:        otel.Tracer("certguard/compliance"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register upserts a subcontractor onto a project. New registrations start
// pending until a certificate is verified.
func (s *Service) Register(ctx context.Context, reg *ProjectSubcontractor) error {
	if reg == nil {
		return dErrors.New(dErrors.CodeBadRequest, "registration is required")
	}
	if reg.ProjectID.IsNil() || reg.SubcontractorID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "project_id and subcontractor_id are required")
	}
	if reg.Status == "" {
		reg.Status = StatusPending
	}
	if !reg.Status.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown compliance status %q", reg.Status)
	}
	return s.registrations.Upsert(ctx, reg)
}

// GetStatus returns a subcontractor's registration and standing on a project.
func (s *Service) GetStatus(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*ProjectSubcontractor, error) {
	if projectID.IsNil() || subcontractorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project_id and subcontractor_id are required")
	}
	return s.registrations.Get(ctx, projectID, subcontractorID)
}

// ListByProject returns all registrations on a project.
func (s *Service) ListByProject(ctx context.Context, projectID id.ProjectID) ([]ProjectSubcontractor, error) {
	if projectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project_id is required")
	}
	return s.registrations.ListByProject(ctx, projectID)
}

// ApplyInput carries a verification result into compliance.
type ApplyInput struct {
	ProjectID       id.ProjectID
	SubcontractorID id.SubcontractorID
	DocumentID      id.DocumentID
	Result          verification.VerificationResult
}

// ApplyOutcome reacts to a verification result. Passing certificates resolve
// any active exceptions and mark the pair compliant; failing certificates
// mark it non-compliant and raise a deficiency notice; review outcomes change
// nothing and wait on a human. Applying the same result twice converges on
// the same state.
func (s *Service) ApplyOutcome(ctx context.Context, in ApplyInput) (*Outcome, error) {
	if in.ProjectID.IsNil() || in.SubcontractorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project_id and subcontractor_id are required")
	}

	ctx, span := s.tracer.Start(ctx, "compliance.apply_outcome",
		trace.WithAttributes(
			attribute.String("project_id", in.ProjectID.String()),
			attribute.String("subcontractor_id", in.SubcontractorID.String()),
			attribute.String("verification_status", string(in.Result.Status)),
		))
	defer span.End()

	reg, err := s.registrations.Get(ctx, in.ProjectID, in.SubcontractorID)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		PreviousStatus: reg.Status,
		NewStatus:      reg.Status,
	}

	newStatus, changed := StatusForResult(in.Result.Status)
	if !changed {
		// Review outcomes park the document for a human; standing is
		// untouched.
		if s.logger != nil {
			s.logger.InfoContext(ctx, "verification outcome needs review",
				"project_id", in.ProjectID,
				"subcontractor_id", in.SubcontractorID,
				"document_id", in.DocumentID,
			)
		}
		return outcome, nil
	}

	if in.Result.Status == verification.StatusPass {
		resolved, err := s.exceptions.ResolveActive(ctx, in.ProjectID, in.SubcontractorID, ResolutionCertificateUpdated, ResolutionNoteCertificateUpdated)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve exceptions")
		}
		outcome.ExceptionsResolved = resolved
		s.metrics.AddExceptionsResolved(resolved)
		if resolved > 0 {
			s.emitAudit(ctx, audit.Event{
				Action:          audit.ActionExceptionResolved,
				ProjectID:       in.ProjectID.String(),
				SubcontractorID: in.SubcontractorID.String(),
				DocumentID:      in.DocumentID.String(),
				Detail:          ResolutionNoteCertificateUpdated,
			})
		}
	}

	if err := s.registrations.SetStatus(ctx, in.ProjectID, in.SubcontractorID, newStatus); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update compliance status")
	}
	outcome.NewStatus = newStatus
	if newStatus != reg.Status {
		s.metrics.IncrementTransition(string(reg.Status), string(newStatus))
		s.emitAudit(ctx, audit.Event{
			Action:          audit.ActionStatusChanged,
			ProjectID:       in.ProjectID.String(),
			SubcontractorID: in.SubcontractorID.String(),
			DocumentID:      in.DocumentID.String(),
			Detail:          fmt.Sprintf("%s -> %s", reg.Status, newStatus),
		})
	}

	outcome.Communication = s.raiseCommunication(ctx, reg, in)
	return outcome, nil
}

// raiseCommunication builds and dispatches the message an outcome calls for.
// A missing recipient or a dispatch failure is logged and swallowed; the
// status transition above must stand either way.
func (s *Service) raiseCommunication(ctx context.Context, reg *ProjectSubcontractor, in ApplyInput) *CommunicationSummary {
	if s.dispatcher == nil {
		return nil
	}
	now := requestcontext.Now(ctx)

	var req communication.Request
	switch in.Result.Status {
	case verification.StatusPass:
		req = communication.BuildConfirmation(communication.ConfirmationInput{
			Recipient:         firstNonEmpty(reg.BrokerEmail, reg.ContactEmail),
			SubcontractorName: reg.SubcontractorName,
			ProjectName:       reg.ProjectName,
		})
	case verification.StatusFail:
		req = communication.BuildDeficiencyNotice(communication.DeficiencyNoticeInput{
			Recipient:         firstNonEmpty(reg.BrokerEmail, reg.ContactEmail),
			SubcontractorName: reg.SubcontractorName,
			ProjectName:       reg.ProjectName,
			Deficiencies:      in.Result.Deficiencies,
			IssuedAt:          now,
		})
	default:
		return nil
	}

	if req.Recipient == "" {
		s.metrics.IncrementCommunicationSkipped()
		if s.logger != nil {
			s.logger.WarnContext(ctx, "communication skipped, no recipient on file",
				"project_id", in.ProjectID,
				"subcontractor_id", in.SubcontractorID,
				"type", req.Type,
			)
		}
		return nil
	}

	if err := s.dispatcher.Dispatch(ctx, req); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "communication dispatch failed",
				"project_id", in.ProjectID,
				"subcontractor_id", in.SubcontractorID,
				"type", req.Type,
				"error", err,
			)
		}
		return nil
	}

	s.metrics.IncrementCommunicationSent(string(req.Type))
	s.emitAudit(ctx, audit.Event{
		Action:          audit.ActionCommunicationSent,
		ProjectID:       in.ProjectID.String(),
		SubcontractorID: in.SubcontractorID.String(),
		DocumentID:      in.DocumentID.String(),
		Detail:          string(req.Type),
	})
	return &CommunicationSummary{
		Type:      string(req.Type),
		Recipient: req.Recipient,
		DueDate:   req.DueDate,
	}
}

// GrantExceptionInput carries an exception request.
type GrantExceptionInput struct {
	ProjectID       id.ProjectID
	SubcontractorID id.SubcontractorID
	Reason          string
	GrantedBy       string
	ExpiresAt       *time.Time
}

// GrantException opens an exception awaiting approval.
func (s *Service) GrantException(ctx context.Context, in GrantExceptionInput) (*Exception, error) {
	if in.ProjectID.IsNil() || in.SubcontractorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project_id and subcontractor_id are required")
	}
	if in.Reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeValidation, "expires_at must be in the future")
	}

	// The pair must be registered before an exception can attach to it.
	if _, err := s.registrations.Get(ctx, in.ProjectID, in.SubcontractorID); err != nil {
		return nil, err
	}

	exception := &Exception{
		ID:              id.NewExceptionID(),
		ProjectID:       in.ProjectID,
		SubcontractorID: in.SubcontractorID,
		Status:          ExceptionPendingApproval,
		Reason:          in.Reason,
		GrantedBy:       in.GrantedBy,
		ExpiresAt:       in.ExpiresAt,
		CreatedAt:       requestcontext.Now(ctx),
	}
	if err := s.exceptions.Create(ctx, exception); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create exception")
	}
	return exception, nil
}

// ApproveException activates a pending exception and moves the pair's
// standing to exception.
func (s *Service) ApproveException(ctx context.Context, exceptionID id.ExceptionID) (*Exception, error) {
	exception, err := s.exceptions.Transition(ctx, exceptionID, ExceptionPendingApproval, ExceptionActive, "")
	if err != nil {
		return nil, err
	}

	if err := s.registrations.SetStatus(ctx, exception.ProjectID, exception.SubcontractorID, StatusException); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update compliance status")
	}
	s.emitAudit(ctx, audit.Event{
		Action:          audit.ActionExceptionGranted,
		ProjectID:       exception.ProjectID.String(),
		SubcontractorID: exception.SubcontractorID.String(),
		Detail:          exception.Reason,
	})
	return exception, nil
}

// CloseException terminates an exception manually from either the pending or
// active state.
func (s *Service) CloseException(ctx context.Context, exceptionID id.ExceptionID) (*Exception, error) {
	exception, err := s.exceptions.Transition(ctx, exceptionID, ExceptionPendingApproval, ExceptionClosed, ResolutionManual)
	if err == nil {
		return exception, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}
	return s.exceptions.Transition(ctx, exceptionID, ExceptionActive, ExceptionClosed, ResolutionManual)
}

// ListExceptions returns the exception history for a pair, newest first.
func (s *Service) ListExceptions(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) ([]Exception, error) {
	if projectID.IsNil() || subcontractorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project_id and subcontractor_id are required")
	}
	return s.exceptions.ListByProjectSubcontractor(ctx, projectID, subcontractorID)
}

// ExpireOverdue sweeps active exceptions past their expiry. Run it
// periodically from a background worker.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.exceptions.ExpireOverdue(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire exceptions")
	}
	if expired > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired overdue exceptions", "count", expired)
	}
	return expired, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
