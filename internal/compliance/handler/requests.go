package handler

import (
	"strings"
	"time"

	"certguard/internal/compliance"
	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for
// POST /projects/{projectID}/subcontractors/{subcontractorID}.
type RegisterRequest struct {
	ProjectName       string     `json:"project_name,omitempty"`
	SubcontractorName string     `json:"subcontractor_name,omitempty"`
	BrokerEmail       string     `json:"broker_email,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	RegisteredABN     string     `json:"registered_abn,omitempty"`
	ProjectState      string     `json:"project_state,omitempty"`
	ProjectEndDate    *time.Time `json:"project_end_date,omitempty"`
}

// Validate normalizes the request.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.SubcontractorName = strings.TrimSpace(r.SubcontractorName)
	r.BrokerEmail = strings.TrimSpace(r.BrokerEmail)
	r.ContactEmail = strings.TrimSpace(r.ContactEmail)
	r.RegisteredABN = strings.TrimSpace(r.RegisteredABN)
	r.ProjectState = strings.TrimSpace(r.ProjectState)
	return nil
}

// ApplyOutcomeRequest is the HTTP request body for
// POST /projects/{projectID}/subcontractors/{subcontractorID}/outcome.
type ApplyOutcomeRequest struct {
	DocumentID string                          `json:"document_id"`
	Result     verification.VerificationResult `json:"result"`

	// Parsed values (populated by Validate)
	parsedDocumentID id.DocumentID
}

// Validate validates and parses the request.
func (r *ApplyOutcomeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	documentID, err := id.ParseDocumentID(strings.TrimSpace(r.DocumentID))
	if err != nil {
		return err
	}
	r.parsedDocumentID = documentID

	switch r.Result.Status {
	case verification.StatusPass, verification.StatusFail, verification.StatusReview:
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown verification status %q", r.Result.Status)
	}
	return nil
}

// ParsedDocumentID returns the validated document ID.
func (r *ApplyOutcomeRequest) ParsedDocumentID() id.DocumentID {
	return r.parsedDocumentID
}

// GrantExceptionRequest is the HTTP request body for
// POST /projects/{projectID}/subcontractors/{subcontractorID}/exceptions.
type GrantExceptionRequest struct {
	Reason    string     `json:"reason"`
	GrantedBy string     `json:"granted_by,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Validate validates the request; the expiry-in-future check belongs to the
// service, which owns the clock.
func (r *GrantExceptionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	r.GrantedBy = strings.TrimSpace(r.GrantedBy)
	return nil
}

func toRegistration(projectID id.ProjectID, subcontractorID id.SubcontractorID, req *RegisterRequest) *compliance.ProjectSubcontractor {
	return &compliance.ProjectSubcontractor{
		ProjectID:         projectID,
		SubcontractorID:   subcontractorID,
		ProjectName:       req.ProjectName,
		SubcontractorName: req.SubcontractorName,
		BrokerEmail:       req.BrokerEmail,
		ContactEmail:      req.ContactEmail,
		RegisteredABN:     req.RegisteredABN,
		ProjectState:      req.ProjectState,
		ProjectEndDate:    req.ProjectEndDate,
	}
}
