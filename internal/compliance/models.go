// Package compliance tracks the insurance standing of each subcontractor on
// each project and reacts to verification outcomes: status transitions,
// exception lifecycle, and outbound communications.
package compliance

import (
	"time"

	id "certguard/pkg/domain"
)

// Status is the compliance standing of a subcontractor on a project.
type Status string

const (
	StatusPending      Status = "pending"
	StatusCompliant    Status = "compliant"
	StatusNonCompliant Status = "non_compliant"
	StatusException    Status = "exception"
)

// IsValid reports whether s is a known compliance status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompliant, StatusNonCompliant, StatusException:
		return true
	}
	return false
}

// ExceptionStatus is the lifecycle state of a compliance exception.
type ExceptionStatus string

const (
	ExceptionPendingApproval ExceptionStatus = "pending_approval"
	ExceptionActive          ExceptionStatus = "active"
	ExceptionExpired         ExceptionStatus = "expired"
	ExceptionResolved        ExceptionStatus = "resolved"
	ExceptionClosed          ExceptionStatus = "closed"
)

// ResolutionType records why an exception stopped being needed.
type ResolutionType string

const (
	// ResolutionCertificateUpdated marks exceptions auto-resolved when a
	// compliant certificate arrives.
	ResolutionCertificateUpdated ResolutionType = "coc_updated"

	// ResolutionManual marks exceptions closed by an administrator.
	ResolutionManual ResolutionType = "manual"
)

// ResolutionNoteCertificateUpdated is stamped on exceptions auto-resolved by
// a compliant certificate.
const ResolutionNoteCertificateUpdated = "Automatically resolved - new compliant certificate uploaded"

// Exception is a time-boxed waiver letting a subcontractor work despite a
// failing certificate.
type Exception struct {
	ID              id.ExceptionID
	ProjectID       id.ProjectID
	SubcontractorID id.SubcontractorID
	Status          ExceptionStatus
	Reason          string
	GrantedBy       string
	ExpiresAt       *time.Time
	Resolution      ResolutionType
	ResolutionNotes string
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProjectSubcontractor is the registration of a subcontractor on a project,
// carrying the configuration the verification engine needs and the current
// compliance standing.
type ProjectSubcontractor struct {
	ProjectID         id.ProjectID
	SubcontractorID   id.SubcontractorID
	ProjectName       string
	SubcontractorName string
	Status            Status
	BrokerEmail       string
	ContactEmail      string
	RegisteredABN     string
	ProjectState      string
	ProjectEndDate    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Outcome reports what applying a verification result changed.
type Outcome struct {
	PreviousStatus     Status
	NewStatus          Status
	ExceptionsResolved int
	Communication      *CommunicationSummary
}

// CommunicationSummary describes the message raised by an outcome, if any.
type CommunicationSummary struct {
	Type      string
	Recipient string
	DueDate   *time.Time
}
