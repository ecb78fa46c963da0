package handler

import (
	"time"

	"certguard/internal/verification"
)

// CheckResponse is one verification check in an HTTP response.
type CheckResponse struct {
	Type        string `json:"check_type"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

// DeficiencyResponse is one deficiency in an HTTP response.
type DeficiencyResponse struct {
	Type          string `json:"type"`
	Severity      string `json:"severity"`
	Description   string `json:"description"`
	RequiredValue string `json:"required_value,omitempty"`
	ActualValue   string `json:"actual_value,omitempty"`
}

// VerifyResponse is the HTTP response for POST /verify.
type VerifyResponse struct {
	Status          string               `json:"status"`
	Checks          []CheckResponse      `json:"checks"`
	Deficiencies    []DeficiencyResponse `json:"deficiencies"`
	ConfidenceScore float64              `json:"confidence_score"`
}

// RecordResponse is the HTTP response for GET /documents/{documentID}/verification.
type RecordResponse struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Result     VerifyResponse `json:"result"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ProcessResponse is the HTTP response for POST /documents/{documentID}/process.
type ProcessResponse struct {
	VerificationID string         `json:"verification_id"`
	Result         VerifyResponse `json:"result"`
}

// FromResult converts a domain VerificationResult to an HTTP response.
func FromResult(result verification.VerificationResult) VerifyResponse {
	checks := make([]CheckResponse, 0, len(result.Checks))
	for _, c := range result.Checks {
		checks = append(checks, CheckResponse{
			Type:        string(c.Type),
			Status:      string(c.Status),
			Description: c.Description,
			Details:     c.Details,
		})
	}

	deficiencies := make([]DeficiencyResponse, 0, len(result.Deficiencies))
	for _, d := range result.Deficiencies {
		deficiencies = append(deficiencies, DeficiencyResponse{
			Type:          string(d.Type),
			Severity:      string(d.Severity),
			Description:   d.Description,
			RequiredValue: d.RequiredValue,
			ActualValue:   d.ActualValue,
		})
	}

	return VerifyResponse{
		Status:          string(result.Status),
		Checks:          checks,
		Deficiencies:    deficiencies,
		ConfidenceScore: result.ConfidenceScore,
	}
}

// FromRecord converts a stored verification record to an HTTP response.
func FromRecord(record *verification.Record) *RecordResponse {
	return &RecordResponse{
		ID:         record.ID.String(),
		DocumentID: record.DocumentID.String(),
		Result:     FromResult(record.Result),
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
