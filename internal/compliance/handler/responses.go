package handler

import (
	"time"

	"certguard/internal/compliance"
)

// RegistrationResponse is one project registration in an HTTP response.
type RegistrationResponse struct {
	ProjectID         string     `json:"project_id"`
	SubcontractorID   string     `json:"subcontractor_id"`
	ProjectName       string     `json:"project_name,omitempty"`
	SubcontractorName string     `json:"subcontractor_name,omitempty"`
	Status            string     `json:"status"`
	BrokerEmail       string     `json:"broker_email,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	RegisteredABN     string     `json:"registered_abn,omitempty"`
	ProjectState      string     `json:"project_state,omitempty"`
	ProjectEndDate    *time.Time `json:"project_end_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ListRegistrationsResponse is the HTTP response for
// GET /projects/{projectID}/subcontractors.
type ListRegistrationsResponse struct {
	Subcontractors []RegistrationResponse `json:"subcontractors"`
}

// OutcomeResponse is the HTTP response for outcome application.
type OutcomeResponse struct {
	PreviousStatus     string                 `json:"previous_status"`
	NewStatus          string                 `json:"new_status"`
	ExceptionsResolved int                    `json:"exceptions_resolved"`
	Communication      *CommunicationResponse `json:"communication,omitempty"`
}

// CommunicationResponse summarizes a dispatched message.
type CommunicationResponse struct {
	Type      string     `json:"type"`
	Recipient string     `json:"recipient"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// ExceptionResponse is one exception in an HTTP response.
type ExceptionResponse struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	SubcontractorID string     `json:"subcontractor_id"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason"`
	GrantedBy       string     `json:"granted_by,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Resolution      string     `json:"resolution,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListExceptionsResponse is the HTTP response for exception listing.
type ListExceptionsResponse struct {
	Exceptions []ExceptionResponse `json:"exceptions"`
}

// FromRegistration converts a domain registration to an HTTP response.
func FromRegistration(reg *compliance.ProjectSubcontractor) *RegistrationResponse {
	return &RegistrationResponse{
		ProjectID:         reg.ProjectID.String(),
		SubcontractorID:   reg.SubcontractorID.String(),
		ProjectName:       reg.ProjectName,
		SubcontractorName: reg.SubcontractorName,
		Status:            string(reg.Status),
		BrokerEmail:       reg.BrokerEmail,
		ContactEmail:      reg.ContactEmail,
		RegisteredABN:     reg.RegisteredABN,
		ProjectState:      reg.ProjectState,
		ProjectEndDate:    reg.ProjectEndDate,
		UpdatedAt:         reg.UpdatedAt,
	}
}

// FromOutcome converts an outcome to an HTTP response.
func FromOutcome(outcome *compliance.Outcome) *OutcomeResponse {
	resp := &OutcomeResponse{
		PreviousStatus:     string(outcome.PreviousStatus),
		NewStatus:          string(outcome.NewStatus),
		ExceptionsResolved: outcome.ExceptionsResolved,
	}
	if outcome.Communication != nil {
		resp.Communication = &CommunicationResponse{
			Type:      outcome.Communication.Type,
			Recipient: outcome.Communication.Recipient,
			DueDate:   outcome.Communication.DueDate,
		}
	}
	return resp
}

// FromException converts a domain exception to an HTTP response.
func FromException(exception *compliance.Exception) *ExceptionResponse {
	return &ExceptionResponse{
		ID:              exception.ID.String(),
		ProjectID:       exception.ProjectID.String(),
		SubcontractorID: exception.SubcontractorID.String(),
		Status:          string(exception.Status),
		Reason:          exception.Reason,
		GrantedBy:       exception.GrantedBy,
		ExpiresAt:       exception.ExpiresAt,
		Resolution:      string(exception.Resolution),
		ResolutionNotes: exception.ResolutionNotes,
		ResolvedAt:      exception.ResolvedAt,
		CreatedAt:       exception.CreatedAt,
	}
}
