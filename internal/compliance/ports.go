package compliance

import (
	"context"
	"time"

	"certguard/internal/audit"
	id "certguard/pkg/domain"
)

// ExceptionStore persists compliance exceptions.
type ExceptionStore interface {
	// Create inserts a new exception.
	Create(ctx context.Context, exception *Exception) error

	// Get returns an exception by ID, or a not_found error.
	Get(ctx context.Context, exceptionID id.ExceptionID) (*Exception, error)

	// ListByProjectSubcontractor returns all exceptions for a
	// (project, subcontractor) pair, newest first.
	ListByProjectSubcontractor(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) ([]Exception, error)

	// Transition moves an exception from one state to another atomically.
	// Returns a not_found error when the exception is not currently in the
	// from state, which makes retried transitions safe.
	Transition(ctx context.Context, exceptionID id.ExceptionID, from, to ExceptionStatus, resolution ResolutionType) (*Exception, error)

	// ResolveActive resolves every active exception for a pair, stamping the
	// resolution type and notes, and returns how many rows changed. Calling
	// it again is a no-op, so outcome application stays idempotent.
	ResolveActive(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, resolution ResolutionType, notes string) (int, error)

	// ExpireOverdue marks active exceptions past their expiry as expired
	// and returns how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// ProjectSubcontractorStore persists project registrations and their
// compliance standing.
type ProjectSubcontractorStore interface {
	// Upsert inserts or replaces a registration, keyed by
	// (project, subcontractor).
	Upsert(ctx context.Context, reg *ProjectSubcontractor) error

	// Get returns a registration, or a not_found error.
	Get(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*ProjectSubcontractor, error)

	// SetStatus updates the compliance standing of a registration.
	SetStatus(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, status Status) error

	// ListByProject returns all registrations on a project.
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]ProjectSubcontractor, error)
}

// AuditPublisher records compliance activity.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
