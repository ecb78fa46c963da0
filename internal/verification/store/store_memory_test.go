package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) record(documentID id.DocumentID, status verification.Status) *verification.Record {
	return &verification.Record{
		DocumentID: documentID,
		Result:     verification.VerificationResult{Status: status},
	}
}

func (s *MemoryStoreSuite) TestCreate() {
	documentID := id.NewDocumentID()

	s.Require().NoError(s.store.Create(s.ctx, s.record(documentID, verification.StatusPass)))

	s.Run("duplicate document conflicts", func() {
		err := s.store.Create(s.ctx, s.record(documentID, verification.StatusFail))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("nil record rejected", func() {
		err := s.store.Create(s.ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *MemoryStoreSuite) TestUpsert() {
	documentID := id.NewDocumentID()

	first, err := s.store.Upsert(s.ctx, s.record(documentID, verification.StatusFail))
	s.Require().NoError(err)
	s.False(first.IsNil())

	laterCtx := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second, err := s.store.Upsert(laterCtx, s.record(documentID, verification.StatusPass))
	s.Require().NoError(err)
	s.Equal(first, second, "replacement keeps the verification id")

	stored, err := s.store.GetByDocument(s.ctx, documentID)
	s.Require().NoError(err)
	s.Equal(verification.StatusPass, stored.Result.Status)
	s.Equal(s.now, stored.CreatedAt)
	s.Equal(s.now.Add(time.Hour), stored.UpdatedAt)
}

func (s *MemoryStoreSuite) TestGetByDocument() {
	s.Run("missing document reports not found", func() {
		_, err := s.store.GetByDocument(s.ctx, id.NewDocumentID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returned record is a copy", func() {
		documentID := id.NewDocumentID()
		_, err := s.store.Upsert(s.ctx, s.record(documentID, verification.StatusPass))
		s.Require().NoError(err)

		got, err := s.store.GetByDocument(s.ctx, documentID)
		s.Require().NoError(err)
		got.Result.Status = verification.StatusFail

		again, err := s.store.GetByDocument(s.ctx, documentID)
		s.Require().NoError(err)
		s.Equal(verification.StatusPass, again.Result.Status)
	})
}
