package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"certguard/internal/compliance"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

// InMemoryExceptionStore keeps exceptions in a map. Transitions take the
// write lock for the whole check-and-set, matching the atomicity of the
// postgres store's conditional updates.
type InMemoryExceptionStore struct {
	mu         sync.RWMutex
	exceptions map[id.ExceptionID]*compliance.Exception
}

func NewMemoryExceptions() *InMemoryExceptionStore {
	return &InMemoryExceptionStore{
		exceptions: make(map[id.ExceptionID]*compliance.Exception),
	}
}

func (s *InMemoryExceptionStore) Create(ctx context.Context, exception *compliance.Exception) error {
	if exception == nil {
		return dErrors.New(dErrors.CodeBadRequest, "exception is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.exceptions[exception.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "exception %s already exists", exception.ID)
	}

	stored := *exception
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = requestcontext.Now(ctx)
	}
	stored.UpdatedAt = stored.CreatedAt
	s.exceptions[stored.ID] = &stored
	return nil
}

func (s *InMemoryExceptionStore) Get(_ context.Context, exceptionID id.ExceptionID) (*compliance.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exception, ok := s.exceptions[exceptionID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "exception %s not found", exceptionID)
	}
	copied := *exception
	return &copied, nil
}

func (s *InMemoryExceptionStore) ListByProjectSubcontractor(_ context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) ([]compliance.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]compliance.Exception, 0)
	for _, e := range s.exceptions {
		if e.ProjectID == projectID && e.SubcontractorID == subcontractorID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryExceptionStore) Transition(ctx context.Context, exceptionID id.ExceptionID, from, to compliance.ExceptionStatus, resolution compliance.ResolutionType) (*compliance.Exception, error) {
	if !compliance.CanTransitionException(from, to) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "exception cannot move from %s to %s", from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exception, ok := s.exceptions[exceptionID]
	if !ok || exception.Status != from {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no %s exception %s", from, exceptionID)
	}

	now := requestcontext.Now(ctx)
	exception.Status = to
	exception.UpdatedAt = now
	if resolution != "" {
		exception.Resolution = resolution
		exception.ResolvedAt = &now
	}
	copied := *exception
	return &copied, nil
}

func (s *InMemoryExceptionStore) ResolveActive(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, resolution compliance.ResolutionType, notes string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	resolved := 0
	for _, e := range s.exceptions {
		if e.ProjectID == projectID && e.SubcontractorID == subcontractorID && e.Status == compliance.ExceptionActive {
			e.Status = compliance.ExceptionResolved
			e.Resolution = resolution
			e.ResolutionNotes = notes
			resolvedAt := now
			e.ResolvedAt = &resolvedAt
			e.UpdatedAt = now
			resolved++
		}
	}
	return resolved, nil
}

func (s *InMemoryExceptionStore) ExpireOverdue(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for _, e := range s.exceptions {
		if e.IsExpired(now) {
			e.Status = compliance.ExceptionExpired
			e.UpdatedAt = now
			expired++
		}
	}
	return expired, nil
}
