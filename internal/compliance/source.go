package compliance

import (
	"context"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
)

// ProjectSourceAdapter exposes registrations as the verification engine's
// ProjectSource, so document processing reads project configuration from the
// same rows compliance maintains.
type ProjectSourceAdapter struct {
	registrations ProjectSubcontractorStore
}

func NewProjectSource(registrations ProjectSubcontractorStore) *ProjectSourceAdapter {
	return &ProjectSourceAdapter{registrations: registrations}
}

func (a *ProjectSourceAdapter) GetProjectContext(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*verification.ProjectContext, error) {
	reg, err := a.registrations.Get(ctx, projectID, subcontractorID)
	if err != nil {
		return nil, err
	}
	return &verification.ProjectContext{
		ProjectEndDate: reg.ProjectEndDate,
		ProjectState:   reg.ProjectState,
		RegisteredABN:  reg.RegisteredABN,
		BrokerEmail:    reg.BrokerEmail,
		ContactEmail:   reg.ContactEmail,
	}, nil
}

// OutcomeApplierAdapter lets the document pipeline push verification results
// into compliance without the verification package importing this one.
type OutcomeApplierAdapter struct {
	service *Service
}

func NewOutcomeApplier(service *Service) *OutcomeApplierAdapter {
	return &OutcomeApplierAdapter{service: service}
}

func (a *OutcomeApplierAdapter) ApplyOutcome(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, documentID id.DocumentID, result verification.VerificationResult) error {
	_, err := a.service.ApplyOutcome(ctx, ApplyInput{
		ProjectID:       projectID,
		SubcontractorID: subcontractorID,
		DocumentID:      documentID,
		Result:          result,
	})
	return err
}
