package audit

import "time"

// Action names the domain activity an event records.
type Action string

const (
	ActionVerificationCompleted Action = "verification.completed"
	ActionStatusChanged         Action = "compliance.status_changed"
	ActionExceptionResolved     Action = "compliance.exception_resolved"
	ActionExceptionGranted      Action = "compliance.exception_granted"
	ActionCommunicationSent     Action = "communication.sent"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp       time.Time `json:"timestamp"`
	Action          Action    `json:"action"`
	ProjectID       string    `json:"project_id,omitempty"`
	SubcontractorID string    `json:"subcontractor_id,omitempty"`
	DocumentID      string    `json:"document_id,omitempty"`
	Detail          string    `json:"detail,omitempty"`
}
