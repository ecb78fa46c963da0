package requirements

import (
	"context"
	"fmt"
	"log/slog"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// Service owns requirement configuration. It validates requirement rows
// before they reach the store and serves as the verification engine's
// RequirementsSource.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("requirements store is required")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Upsert validates and stores a requirement, assigning an ID when absent.
func (s *Service) Upsert(ctx context.Context, req *verification.CoverageRequirement) error {
	if err := validateRequirement(req); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store requirement")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "requirement stored",
			"requirement_id", req.ID,
			"project_id", req.ProjectID,
			"coverage_type", req.CoverageType,
		)
	}
	return nil
}

// ListByProject returns the requirement set configured for a project.
func (s *Service) ListByProject(ctx context.Context, projectID id.ProjectID) ([]verification.CoverageRequirement, error) {
	if projectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project_id is required")
	}
	return s.store.ListByProject(ctx, projectID)
}

// Delete removes a requirement from a project.
func (s *Service) Delete(ctx context.Context, projectID id.ProjectID, requirementID id.RequirementID) error {
	if projectID.IsNil() || requirementID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "project_id and requirement_id are required")
	}
	return s.store.Delete(ctx, projectID, requirementID)
}

func validateRequirement(req *verification.CoverageRequirement) error {
	if req == nil {
		return dErrors.New(dErrors.CodeBadRequest, "requirement is required")
	}
	if req.ProjectID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "project_id is required")
	}
	if !req.CoverageType.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown coverage type %q", req.CoverageType)
	}
	switch req.LimitType {
	case "", verification.LimitPerOccurrence, verification.LimitAggregate, verification.LimitPerClaim:
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown limit type %q", req.LimitType)
	}
	if req.LimitType == "" {
		req.LimitType = verification.LimitPerOccurrence
	}
	if req.MinimumLimit != nil && *req.MinimumLimit <= 0 {
		return dErrors.New(dErrors.CodeValidation, "minimum_limit must be positive")
	}
	if req.MaximumExcess != nil && *req.MaximumExcess < 0 {
		return dErrors.New(dErrors.CodeValidation, "maximum_excess must not be negative")
	}
	return nil
}
