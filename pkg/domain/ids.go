// Package domain defines typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so a DocumentID can never be
// passed where a ProjectID is expected. Parse functions enforce the
// invariant that IDs are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "certguard/pkg/domain-errors"
)

type (
	// ProjectID identifies a construction project.
	ProjectID uuid.UUID
	// SubcontractorID identifies a subcontractor company.
	SubcontractorID uuid.UUID
	// DocumentID identifies an uploaded certificate document.
	DocumentID uuid.UUID
	// VerificationID identifies a stored verification result.
	VerificationID uuid.UUID
	// ExceptionID identifies a compliance exception.
	ExceptionID uuid.UUID
	// RequirementID identifies a project coverage requirement row.
	RequirementID uuid.UUID
)

func parse(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return u, nil
}

func ParseProjectID(s string) (ProjectID, error) {
	u, err := parse(s, "project_id")
	return ProjectID(u), err
}

func ParseSubcontractorID(s string) (SubcontractorID, error) {
	u, err := parse(s, "subcontractor_id")
	return SubcontractorID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parse(s, "document_id")
	return DocumentID(u), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parse(s, "verification_id")
	return VerificationID(u), err
}

func ParseExceptionID(s string) (ExceptionID, error) {
	u, err := parse(s, "exception_id")
	return ExceptionID(u), err
}

func ParseRequirementID(s string) (RequirementID, error) {
	u, err := parse(s, "requirement_id")
	return RequirementID(u), err
}

func NewProjectID() ProjectID             { return ProjectID(uuid.New()) }
func NewSubcontractorID() SubcontractorID { return SubcontractorID(uuid.New()) }
func NewDocumentID() DocumentID           { return DocumentID(uuid.New()) }
func NewVerificationID() VerificationID   { return VerificationID(uuid.New()) }
func NewExceptionID() ExceptionID         { return ExceptionID(uuid.New()) }
func NewRequirementID() RequirementID     { return RequirementID(uuid.New()) }

func (id ProjectID) String() string       { return uuid.UUID(id).String() }
func (id SubcontractorID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string  { return uuid.UUID(id).String() }
func (id ExceptionID) String() string     { return uuid.UUID(id).String() }
func (id RequirementID) String() string   { return uuid.UUID(id).String() }

func (id ProjectID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SubcontractorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ExceptionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
