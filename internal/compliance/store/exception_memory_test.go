package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/compliance"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

type ExceptionMemorySuite struct {
	suite.Suite
	ctx             context.Context
	now             time.Time
	store           *InMemoryExceptionStore
	projectID       id.ProjectID
	subcontractorID id.SubcontractorID
}

func TestExceptionMemorySuite(t *testing.T) {
	suite.Run(t, new(ExceptionMemorySuite))
}

func (s *ExceptionMemorySuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = NewMemoryExceptions()
	s.projectID = id.NewProjectID()
	s.subcontractorID = id.NewSubcontractorID()
}

func (s *ExceptionMemorySuite) create(status compliance.ExceptionStatus, expiresAt *time.Time) *compliance.Exception {
	exception := &compliance.Exception{
		ID:              id.NewExceptionID(),
		ProjectID:       s.projectID,
		SubcontractorID: s.subcontractorID,
		Status:          status,
		Reason:          "certificate renewal in transit",
		ExpiresAt:       expiresAt,
	}
	s.Require().NoError(s.store.Create(s.ctx, exception))
	return exception
}

func (s *ExceptionMemorySuite) TestCreate() {
	exception := s.create(compliance.ExceptionPendingApproval, nil)

	s.Run("duplicate id conflicts", func() {
		err := s.store.Create(s.ctx, &compliance.Exception{ID: exception.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("created timestamps come from the context clock", func() {
		got, err := s.store.Get(s.ctx, exception.ID)
		s.Require().NoError(err)
		s.Equal(s.now, got.CreatedAt)
		s.Equal(s.now, got.UpdatedAt)
	})
}

func (s *ExceptionMemorySuite) TestTransition() {
	s.Run("disallowed transition violates the lifecycle", func() {
		exception := s.create(compliance.ExceptionPendingApproval, nil)
		_, err := s.store.Transition(s.ctx, exception.ID, compliance.ExceptionPendingApproval, compliance.ExceptionResolved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("wrong current state reports not found", func() {
		exception := s.create(compliance.ExceptionPendingApproval, nil)
		_, err := s.store.Transition(s.ctx, exception.ID, compliance.ExceptionActive, compliance.ExceptionClosed, compliance.ResolutionManual)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("resolution stamps resolved_at", func() {
		exception := s.create(compliance.ExceptionActive, nil)
		got, err := s.store.Transition(s.ctx, exception.ID, compliance.ExceptionActive, compliance.ExceptionClosed, compliance.ResolutionManual)
		s.Require().NoError(err)
		s.Equal(compliance.ExceptionClosed, got.Status)
		s.Equal(compliance.ResolutionManual, got.Resolution)
		s.Require().NotNil(got.ResolvedAt)
		s.Equal(s.now, *got.ResolvedAt)
	})

	s.Run("activation leaves resolution empty", func() {
		exception := s.create(compliance.ExceptionPendingApproval, nil)
		got, err := s.store.Transition(s.ctx, exception.ID, compliance.ExceptionPendingApproval, compliance.ExceptionActive, "")
		s.Require().NoError(err)
		s.Empty(got.Resolution)
		s.Nil(got.ResolvedAt)
	})
}

func (s *ExceptionMemorySuite) TestResolveActive() {
	s.create(compliance.ExceptionActive, nil)
	s.create(compliance.ExceptionActive, nil)
	s.create(compliance.ExceptionPendingApproval, nil)

	other := &compliance.Exception{
		ID:              id.NewExceptionID(),
		ProjectID:       id.NewProjectID(),
		SubcontractorID: s.subcontractorID,
		Status:          compliance.ExceptionActive,
	}
	s.Require().NoError(s.store.Create(s.ctx, other))

	resolved, err := s.store.ResolveActive(s.ctx, s.projectID, s.subcontractorID, compliance.ResolutionCertificateUpdated, compliance.ResolutionNoteCertificateUpdated)
	s.Require().NoError(err)
	s.Equal(2, resolved, "only the pair's active exceptions resolve")

	s.Run("resolution type and notes are stamped", func() {
		listed, err := s.store.ListByProjectSubcontractor(s.ctx, s.projectID, s.subcontractorID)
		s.Require().NoError(err)
		for _, e := range listed {
			if e.Status == compliance.ExceptionResolved {
				s.Equal(compliance.ResolutionCertificateUpdated, e.Resolution)
				s.Equal(compliance.ResolutionNoteCertificateUpdated, e.ResolutionNotes)
			}
		}
	})

	s.Run("resolving again is a no-op", func() {
		resolved, err := s.store.ResolveActive(s.ctx, s.projectID, s.subcontractorID, compliance.ResolutionCertificateUpdated, compliance.ResolutionNoteCertificateUpdated)
		s.Require().NoError(err)
		s.Zero(resolved)
	})

	s.Run("other pairs are untouched", func() {
		got, err := s.store.Get(s.ctx, other.ID)
		s.Require().NoError(err)
		s.Equal(compliance.ExceptionActive, got.Status)
	})
}

func (s *ExceptionMemorySuite) TestExpireOverdue() {
	past := s.now.AddDate(0, 0, -1)
	future := s.now.AddDate(0, 0, 30)

	overdue := s.create(compliance.ExceptionActive, &past)
	s.create(compliance.ExceptionActive, &future)
	s.create(compliance.ExceptionActive, nil)

	expired, err := s.store.ExpireOverdue(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, expired)

	got, err := s.store.Get(s.ctx, overdue.ID)
	s.Require().NoError(err)
	s.Equal(compliance.ExceptionExpired, got.Status)
}

func (s *ExceptionMemorySuite) TestListNewestFirst() {
	first := s.create(compliance.ExceptionActive, nil)

	laterCtx := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second := &compliance.Exception{
		ID:              id.NewExceptionID(),
		ProjectID:       s.projectID,
		SubcontractorID: s.subcontractorID,
		Status:          compliance.ExceptionPendingApproval,
	}
	s.Require().NoError(s.store.Create(laterCtx, second))

	listed, err := s.store.ListByProjectSubcontractor(s.ctx, s.projectID, s.subcontractorID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(second.ID, listed[0].ID)
	s.Equal(first.ID, listed[1].ID)
}
