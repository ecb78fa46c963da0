// Package requirements manages the coverage requirement sets configured per
// project. It is the system of record behind the verification engine's
// RequirementsSource.
package requirements

import (
	"context"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
)

// Store persists coverage requirements keyed by project.
type Store interface {
	// Upsert inserts a requirement or replaces the existing row with the
	// same ID.
	Upsert(ctx context.Context, req *verification.CoverageRequirement) error

	// ListByProject returns all requirements configured for a project.
	// An unconfigured project returns an empty slice, not an error.
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]verification.CoverageRequirement, error)

	// Delete removes a requirement from a project. Returns a not_found
	// error when no such requirement exists under that project.
	Delete(ctx context.Context, projectID id.ProjectID, requirementID id.RequirementID) error
}
