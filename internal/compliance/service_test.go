package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/audit"
	"certguard/internal/communication"
	"certguard/internal/compliance"
	"certguard/internal/compliance/store"
	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// =============================================================================
// Compliance Service Test Suite
// =============================================================================

type ComplianceServiceSuite struct {
	suite.Suite
	ctx             context.Context
	now             time.Time
	exceptions      *store.InMemoryExceptionStore
	registrations   *store.InMemoryProjectSubcontractorStore
	dispatcher      *communication.Recorder
	auditStore      *audit.InMemoryStore
	service         *compliance.Service
	projectID       id.ProjectID
	subcontractorID id.SubcontractorID
	documentID      id.DocumentID
}

func TestComplianceServiceSuite(t *testing.T) {
	suite.Run(t, new(ComplianceServiceSuite))
}

func (s *ComplianceServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.exceptions = store.NewMemoryExceptions()
	s.registrations = store.NewMemoryProjectSubcontractors()
	s.dispatcher = communication.NewRecorder()
	s.auditStore = audit.NewMemoryStore()
	s.projectID = id.NewProjectID()
	s.subcontractorID = id.NewSubcontractorID()
	s.documentID = id.NewDocumentID()

	service, err := compliance.New(s.exceptions, s.registrations,
		compliance.WithDispatcher(s.dispatcher),
		compliance.WithAuditPublisher(audit.NewPublisher(s.auditStore)),
	)
	s.Require().NoError(err)
	s.service = service
}

func (s *ComplianceServiceSuite) register(brokerEmail, contactEmail string) {
	s.Require().NoError(s.service.Register(s.ctx, &compliance.ProjectSubcontractor{
		ProjectID:         s.projectID,
		SubcontractorID:   s.subcontractorID,
		ProjectName:       "Harbourside Stage 2",
		SubcontractorName: "Apex Formwork Pty Ltd",
		BrokerEmail:       brokerEmail,
		ContactEmail:      contactEmail,
	}))
}

func (s *ComplianceServiceSuite) apply(result verification.VerificationResult) *compliance.Outcome {
	outcome, err := s.service.ApplyOutcome(s.ctx, compliance.ApplyInput{
		ProjectID:       s.projectID,
		SubcontractorID: s.subcontractorID,
		DocumentID:      s.documentID,
		Result:          result,
	})
	s.Require().NoError(err)
	return outcome
}

func (s *ComplianceServiceSuite) auditActions() []audit.Action {
	stored, err := s.auditStore.ListByProject(s.ctx, s.projectID.String())
	s.Require().NoError(err)
	actions := make([]audit.Action, 0, len(stored))
	for _, e := range stored {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *ComplianceServiceSuite) TestConstructor() {
	s.Run("requires an exception store", func() {
		_, err := compliance.New(nil, s.registrations)
		s.Require().Error(err)
		s.Contains(err.Error(), "exception store is required")
	})

	s.Run("requires a registration store", func() {
		_, err := compliance.New(s.exceptions, nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "project subcontractor store is required")
	})
}

func (s *ComplianceServiceSuite) TestRegister() {
	s.Run("new registrations default to pending", func() {
		s.register("broker@example.com", "")

		reg, err := s.service.GetStatus(s.ctx, s.projectID, s.subcontractorID)
		s.Require().NoError(err)
		s.Equal(compliance.StatusPending, reg.Status)
	})

	s.Run("unknown status rejected", func() {
		err := s.service.Register(s.ctx, &compliance.ProjectSubcontractor{
			ProjectID:       s.projectID,
			SubcontractorID: s.subcontractorID,
			Status:          compliance.Status("suspended"),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("re-registering keeps the current standing", func() {
		s.register("broker@example.com", "")
		s.apply(verification.VerificationResult{Status: verification.StatusPass})

		s.register("new-broker@example.com", "")
		reg, err := s.service.GetStatus(s.ctx, s.projectID, s.subcontractorID)
		s.Require().NoError(err)
		s.Equal(compliance.StatusCompliant, reg.Status)
		s.Equal("new-broker@example.com", reg.BrokerEmail)
	})
}

func (s *ComplianceServiceSuite) TestApplyOutcomePass() {
	s.register("broker@example.com", "contact@example.com")

	outcome := s.apply(verification.VerificationResult{Status: verification.StatusPass})

	s.Equal(compliance.StatusPending, outcome.PreviousStatus)
	s.Equal(compliance.StatusCompliant, outcome.NewStatus)
	s.Zero(outcome.ExceptionsResolved)

	sent := s.dispatcher.Sent()
	s.Require().Len(sent, 1)
	s.Equal(communication.TypeConfirmation, sent[0].Type)
	s.Equal("broker@example.com", sent[0].Recipient, "confirmations go to the broker first")

	s.Contains(s.auditActions(), audit.ActionStatusChanged)
	s.Contains(s.auditActions(), audit.ActionCommunicationSent)
}

func (s *ComplianceServiceSuite) TestConfirmationFallsBackToContact() {
	s.register("", "contact@example.com")

	s.apply(verification.VerificationResult{Status: verification.StatusPass})

	sent := s.dispatcher.Sent()
	s.Require().Len(sent, 1)
	s.Equal(communication.TypeConfirmation, sent[0].Type)
	s.Equal("contact@example.com", sent[0].Recipient, "contact stands in when no broker is on file")
}

func (s *ComplianceServiceSuite) TestApplyOutcomeFail() {
	s.register("broker@example.com", "contact@example.com")

	result := verification.VerificationResult{
		Status: verification.StatusFail,
		Deficiencies: []verification.Deficiency{{
			Type:          verification.DeficiencyInsufficientLimit,
			Severity:      verification.SeverityMajor,
			Description:   "Public Liability limit below required minimum",
			RequiredValue: "$20,000,000",
			ActualValue:   "$10,000,000",
		}},
	}
	outcome := s.apply(result)

	s.Equal(compliance.StatusNonCompliant, outcome.NewStatus)

	sent := s.dispatcher.Sent()
	s.Require().Len(sent, 1)
	s.Equal(communication.TypeDeficiencyNotice, sent[0].Type)
	s.Equal("broker@example.com", sent[0].Recipient, "deficiency notices go to the broker first")
	s.Require().NotNil(sent[0].DueDate)
	s.Equal(s.now.AddDate(0, 0, communication.ResponseDays), *sent[0].DueDate)

	s.Require().NotNil(outcome.Communication)
	s.Equal("broker@example.com", outcome.Communication.Recipient)
}

func (s *ComplianceServiceSuite) TestApplyOutcomeReview() {
	s.register("broker@example.com", "")

	outcome := s.apply(verification.VerificationResult{Status: verification.StatusReview})

	s.Equal(compliance.StatusPending, outcome.NewStatus, "review outcomes leave standing untouched")
	s.Empty(s.dispatcher.Sent())
	s.Nil(outcome.Communication)
}

func (s *ComplianceServiceSuite) TestApplyOutcomeWithoutRecipient() {
	s.register("", "")

	outcome := s.apply(verification.VerificationResult{Status: verification.StatusFail})

	s.Equal(compliance.StatusNonCompliant, outcome.NewStatus, "status moves even when nobody can be notified")
	s.Nil(outcome.Communication)
	s.Empty(s.dispatcher.Sent())
}

func (s *ComplianceServiceSuite) TestApplyOutcomeUnregisteredPair() {
	_, err := s.service.ApplyOutcome(s.ctx, compliance.ApplyInput{
		ProjectID:       id.NewProjectID(),
		SubcontractorID: id.NewSubcontractorID(),
		Result:          verification.VerificationResult{Status: verification.StatusPass},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ComplianceServiceSuite) TestApplyOutcomeIsIdempotent() {
	s.register("broker@example.com", "")

	first := s.apply(verification.VerificationResult{Status: verification.StatusPass})
	second := s.apply(verification.VerificationResult{Status: verification.StatusPass})

	s.Equal(compliance.StatusCompliant, first.NewStatus)
	s.Equal(compliance.StatusCompliant, second.PreviousStatus)
	s.Equal(compliance.StatusCompliant, second.NewStatus)
}

// =============================================================================
// Exception Lifecycle
// =============================================================================

func (s *ComplianceServiceSuite) grantApproved(expiresAt *time.Time) *compliance.Exception {
	exception, err := s.service.GrantException(s.ctx, compliance.GrantExceptionInput{
		ProjectID:       s.projectID,
		SubcontractorID: s.subcontractorID,
		Reason:          "Renewal certificate in transit from insurer",
		GrantedBy:       "ops@example.com",
		ExpiresAt:       expiresAt,
	})
	s.Require().NoError(err)

	approved, err := s.service.ApproveException(s.ctx, exception.ID)
	s.Require().NoError(err)
	return approved
}

func (s *ComplianceServiceSuite) TestGrantException() {
	s.register("broker@example.com", "")

	s.Run("requires a reason", func() {
		_, err := s.service.GrantException(s.ctx, compliance.GrantExceptionInput{
			ProjectID:       s.projectID,
			SubcontractorID: s.subcontractorID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects a past expiry", func() {
		past := s.now.AddDate(0, 0, -1)
		_, err := s.service.GrantException(s.ctx, compliance.GrantExceptionInput{
			ProjectID:       s.projectID,
			SubcontractorID: s.subcontractorID,
			Reason:          "late renewal",
			ExpiresAt:       &past,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires a registered pair", func() {
		_, err := s.service.GrantException(s.ctx, compliance.GrantExceptionInput{
			ProjectID:       id.NewProjectID(),
			SubcontractorID: s.subcontractorID,
			Reason:          "late renewal",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("opens pending approval", func() {
		exception, err := s.service.GrantException(s.ctx, compliance.GrantExceptionInput{
			ProjectID:       s.projectID,
			SubcontractorID: s.subcontractorID,
			Reason:          "Renewal certificate in transit from insurer",
		})
		s.Require().NoError(err)
		s.Equal(compliance.ExceptionPendingApproval, exception.Status)
		s.False(exception.ID.IsNil())

		reg, err := s.service.GetStatus(s.ctx, s.projectID, s.subcontractorID)
		s.Require().NoError(err)
		s.Equal(compliance.StatusPending, reg.Status, "granting alone does not change standing")
	})
}

func (s *ComplianceServiceSuite) TestApproveException() {
	s.register("broker@example.com", "")
	exception := s.grantApproved(nil)

	s.Equal(compliance.ExceptionActive, exception.Status)

	reg, err := s.service.GetStatus(s.ctx, s.projectID, s.subcontractorID)
	s.Require().NoError(err)
	s.Equal(compliance.StatusException, reg.Status)

	s.Run("approving twice fails", func() {
		_, err := s.service.ApproveException(s.ctx, exception.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ComplianceServiceSuite) TestPassResolvesActiveExceptions() {
	s.register("broker@example.com", "")
	exception := s.grantApproved(nil)

	outcome := s.apply(verification.VerificationResult{Status: verification.StatusPass})
	s.Equal(1, outcome.ExceptionsResolved)
	s.Equal(compliance.StatusCompliant, outcome.NewStatus)

	listed, err := s.service.ListExceptions(s.ctx, s.projectID, s.subcontractorID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(exception.ID, listed[0].ID)
	s.Equal(compliance.ExceptionResolved, listed[0].Status)
	s.Equal(compliance.ResolutionCertificateUpdated, listed[0].Resolution)
	s.Equal(compliance.ResolutionNoteCertificateUpdated, listed[0].ResolutionNotes)
	s.Require().NotNil(listed[0].ResolvedAt)

	s.Contains(s.auditActions(), audit.ActionExceptionResolved)

	s.Run("a second pass resolves nothing more", func() {
		outcome := s.apply(verification.VerificationResult{Status: verification.StatusPass})
		s.Zero(outcome.ExceptionsResolved)
	})
}

func (s *ComplianceServiceSuite) TestFailDuringActiveException() {
	s.register("broker@example.com", "")
	exception := s.grantApproved(nil)

	outcome := s.apply(verification.VerificationResult{Status: verification.StatusFail})

	s.Equal(compliance.StatusException, outcome.PreviousStatus)
	s.Equal(compliance.StatusNonCompliant, outcome.NewStatus, "standing mirrors the latest outcome")

	listed, err := s.service.ListExceptions(s.ctx, s.projectID, s.subcontractorID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(exception.ID, listed[0].ID)
	s.Equal(compliance.ExceptionActive, listed[0].Status, "a failing certificate does not touch the exception")
}

func (s *ComplianceServiceSuite) TestCloseException() {
	s.register("broker@example.com", "")

	s.Run("closes a pending exception", func() {
		exception, err := s.service.GrantException(s.ctx, compliance.GrantExceptionInput{
			ProjectID:       s.projectID,
			SubcontractorID: s.subcontractorID,
			Reason:          "opened by mistake",
		})
		s.Require().NoError(err)

		closed, err := s.service.CloseException(s.ctx, exception.ID)
		s.Require().NoError(err)
		s.Equal(compliance.ExceptionClosed, closed.Status)
		s.Equal(compliance.ResolutionManual, closed.Resolution)
	})

	s.Run("closes an active exception", func() {
		exception := s.grantApproved(nil)

		closed, err := s.service.CloseException(s.ctx, exception.ID)
		s.Require().NoError(err)
		s.Equal(compliance.ExceptionClosed, closed.Status)
	})

	s.Run("unknown exception reports not found", func() {
		_, err := s.service.CloseException(s.ctx, id.NewExceptionID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ComplianceServiceSuite) TestExpireOverdue() {
	s.register("broker@example.com", "")
	expiry := s.now.AddDate(0, 0, 7)
	exception := s.grantApproved(&expiry)

	s.Run("nothing to expire yet", func() {
		expired, err := s.service.ExpireOverdue(s.ctx)
		s.Require().NoError(err)
		s.Zero(expired)
	})

	s.Run("past expiry sweeps the exception", func() {
		later := requestcontext.WithTime(context.Background(), s.now.AddDate(0, 0, 8))
		expired, err := s.service.ExpireOverdue(later)
		s.Require().NoError(err)
		s.Equal(1, expired)

		listed, err := s.service.ListExceptions(s.ctx, s.projectID, s.subcontractorID)
		s.Require().NoError(err)
		s.Require().Len(listed, 1)
		s.Equal(exception.ID, listed[0].ID)
		s.Equal(compliance.ExceptionExpired, listed[0].Status)
	})
}
