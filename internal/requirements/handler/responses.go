package handler

import (
	"certguard/internal/verification"
)

// RequirementResponse is one coverage requirement in an HTTP response.
type RequirementResponse struct {
	ID                     string `json:"id"`
	ProjectID              string `json:"project_id"`
	CoverageType           string `json:"coverage_type"`
	MinimumLimit           *int64 `json:"minimum_limit,omitempty"`
	LimitType              string `json:"limit_type"`
	MaximumExcess          *int64 `json:"maximum_excess,omitempty"`
	PrincipalIndemnityReq  bool   `json:"principal_indemnity_required"`
	CrossLiabilityReq      bool   `json:"cross_liability_required"`
	WaiverOfSubrogationReq bool   `json:"waiver_of_subrogation_required"`
	PrincipalNamingReq     bool   `json:"principal_naming_required"`
}

// ListResponse is the HTTP response for GET /projects/{projectID}/requirements.
type ListResponse struct {
	Requirements []RequirementResponse `json:"requirements"`
}

// FromRequirement converts a domain requirement to an HTTP response.
func FromRequirement(req verification.CoverageRequirement) RequirementResponse {
	return RequirementResponse{
		ID:                     req.ID.String(),
		ProjectID:              req.ProjectID.String(),
		CoverageType:           string(req.CoverageType),
		MinimumLimit:           req.MinimumLimit,
		LimitType:              string(req.LimitType),
		MaximumExcess:          req.MaximumExcess,
		PrincipalIndemnityReq:  req.PrincipalIndemnityReq,
		CrossLiabilityReq:      req.CrossLiabilityReq,
		WaiverOfSubrogationReq: req.WaiverOfSubrogationReq,
		PrincipalNamingReq:     req.PrincipalNamingReq,
	}
}

// FromRequirements converts a requirement list to an HTTP response.
func FromRequirements(reqs []verification.CoverageRequirement) *ListResponse {
	out := make([]RequirementResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, FromRequirement(req))
	}
	return &ListResponse{Requirements: out}
}
