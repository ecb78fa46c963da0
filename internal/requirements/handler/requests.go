package handler

import (
	"strings"

	"certguard/internal/verification"
	dErrors "certguard/pkg/domain-errors"
)

// UpsertRequirementRequest is the HTTP request body for
// POST /projects/{projectID}/requirements.
type UpsertRequirementRequest struct {
	ID                     string `json:"id,omitempty"`
	CoverageType           string `json:"coverage_type"`
	MinimumLimit           *int64 `json:"minimum_limit,omitempty"`
	LimitType              string `json:"limit_type,omitempty"`
	MaximumExcess          *int64 `json:"maximum_excess,omitempty"`
	PrincipalIndemnityReq  bool   `json:"principal_indemnity_required"`
	CrossLiabilityReq      bool   `json:"cross_liability_required"`
	WaiverOfSubrogationReq bool   `json:"waiver_of_subrogation_required"`
	PrincipalNamingReq     bool   `json:"principal_naming_required"`

	// Parsed values (populated by Validate)
	parsedCoverageType verification.CoverageType
}

// Validate validates and parses the request. Project scoping and the full
// requirement validation happen in the service.
func (r *UpsertRequirementRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.CoverageType = strings.TrimSpace(r.CoverageType)
	if r.CoverageType == "" {
		return dErrors.New(dErrors.CodeValidation, "coverage_type is required")
	}
	coverageType, err := verification.ParseCoverageType(r.CoverageType)
	if err != nil {
		return err
	}
	r.parsedCoverageType = coverageType

	return nil
}

// ParsedCoverageType returns the validated coverage type.
func (r *UpsertRequirementRequest) ParsedCoverageType() verification.CoverageType {
	return r.parsedCoverageType
}
