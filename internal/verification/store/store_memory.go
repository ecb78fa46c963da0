package store

import (
	"context"
	"sync"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// InMemoryStore keeps verification records in a map keyed by document ID.
// The map key doubles as the uniqueness guarantee the Store contract asks
// for, so the concurrency semantics match the postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.DocumentID]*verification.Record
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[id.DocumentID]*verification.Record),
	}
}

func (s *InMemoryStore) Create(_ context.Context, record *verification.Record) error {
	if record == nil {
		return dErrors.New(dErrors.CodeBadRequest, "verification record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.DocumentID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "verification already exists for document %s", record.DocumentID)
	}

	stored := *record
	if stored.ID.IsNil() {
		stored.ID = id.NewVerificationID()
	}
	stored.UpdatedAt = stored.CreatedAt
	s.records[record.DocumentID] = &stored
	return nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, record *verification.Record) (id.VerificationID, error) {
	if record == nil {
		return id.VerificationID{}, dErrors.New(dErrors.CodeBadRequest, "verification record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)

	if existing, ok := s.records[record.DocumentID]; ok {
		existing.Result = record.Result
		existing.Extracted = record.Extracted
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	stored := *record
	if stored.ID.IsNil() {
		stored.ID = id.NewVerificationID()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[record.DocumentID] = &stored
	return stored.ID, nil
}

func (s *InMemoryStore) GetByDocument(_ context.Context, documentID id.DocumentID) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[documentID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no verification for document %s", documentID)
	}
	copied := *record
	return &copied, nil
}
