package handler

import (
	"strings"
	"time"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// VerifyRequest is the HTTP request body for POST /verify. It carries the
// full engine input inline so callers can evaluate a certificate without any
// stored project configuration.
type VerifyRequest struct {
	Extracted      verification.ExtractedPolicyData   `json:"extracted"`
	Requirements   []verification.CoverageRequirement `json:"requirements"`
	ProjectEndDate *time.Time                         `json:"project_end_date,omitempty"`
	ProjectState   string                             `json:"project_state,omitempty"`
	RegisteredABN  string                             `json:"registered_abn,omitempty"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if err := r.Extracted.Validate(); err != nil {
		return err
	}

	for _, req := range r.Requirements {
		if !req.CoverageType.IsValid() {
			return dErrors.Newf(dErrors.CodeValidation, "unknown coverage type %q in requirements", req.CoverageType)
		}
	}

	r.ProjectState = strings.TrimSpace(r.ProjectState)
	r.RegisteredABN = strings.TrimSpace(r.RegisteredABN)
	return nil
}

// ProcessDocumentRequest is the HTTP request body for
// POST /documents/{documentID}/process.
type ProcessDocumentRequest struct {
	ProjectID       string `json:"project_id"`
	SubcontractorID string `json:"subcontractor_id"`

	// Parsed values (populated by Validate)
	parsedProjectID       id.ProjectID
	parsedSubcontractorID id.SubcontractorID
}

// Validate validates and parses the request.
func (r *ProcessDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	projectID, err := id.ParseProjectID(strings.TrimSpace(r.ProjectID))
	if err != nil {
		return err
	}
	r.parsedProjectID = projectID

	subcontractorID, err := id.ParseSubcontractorID(strings.TrimSpace(r.SubcontractorID))
	if err != nil {
		return err
	}
	r.parsedSubcontractorID = subcontractorID

	return nil
}

// ParsedProjectID returns the validated project ID.
func (r *ProcessDocumentRequest) ParsedProjectID() id.ProjectID {
	return r.parsedProjectID
}

// ParsedSubcontractorID returns the validated subcontractor ID.
func (r *ProcessDocumentRequest) ParsedSubcontractorID() id.SubcontractorID {
	return r.parsedSubcontractorID
}
