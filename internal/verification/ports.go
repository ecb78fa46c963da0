package verification

import (
	"context"
	"fmt"
	"time"

	id "certguard/pkg/domain"
)

// Collaborator interfaces consumed by the service. Implementations live in
// other modules (requirements store) or outside this core entirely (the AI
// extraction service, project configuration).

// RequirementsSource returns the coverage requirement set configured for a
// project.
type RequirementsSource interface {
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]CoverageRequirement, error)
}

// ProjectContext is the slice of project and subcontractor configuration the
// engine needs beyond the requirement rows.
type ProjectContext struct {
	ProjectEndDate *time.Time
	ProjectState   string
	RegisteredABN  string
	BrokerEmail    string
	ContactEmail   string
}

// ProjectSource resolves project and subcontractor configuration.
type ProjectSource interface {
	GetProjectContext(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*ProjectContext, error)
}

// OutcomeApplier receives the verification result downstream, once the
// record is stored. Compliance standing and notifications hang off it.
type OutcomeApplier interface {
	ApplyOutcome(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, documentID id.DocumentID, result VerificationResult) error
}

// Extractor is the external AI extraction service. Failures surface as
// *ExtractionError; retries are the caller's policy, not this core's.
type Extractor interface {
	Extract(ctx context.Context, documentID id.DocumentID) (*ExtractedPolicyData, error)
}

// ExtractionError is the typed failure an extractor reports.
type ExtractionError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed [%s]: %s", e.Code, e.Message)
}
