package store

import (
	"context"
	"sort"
	"sync"

	"certguard/internal/compliance"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/requestcontext"
)

type pairKey struct {
	project       id.ProjectID
	subcontractor id.SubcontractorID
}

// InMemoryProjectSubcontractorStore keeps registrations in a map keyed by
// the (project, subcontractor) pair.
type InMemoryProjectSubcontractorStore struct {
	mu            sync.RWMutex
	registrations map[pairKey]*compliance.ProjectSubcontractor
}

func NewMemoryProjectSubcontractors() *InMemoryProjectSubcontractorStore {
	return &InMemoryProjectSubcontractorStore{
		registrations: make(map[pairKey]*compliance.ProjectSubcontractor),
	}
}

func (s *InMemoryProjectSubcontractorStore) Upsert(ctx context.Context, reg *compliance.ProjectSubcontractor) error {
	if reg == nil {
		return dErrors.New(dErrors.CodeBadRequest, "registration is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	key := pairKey{project: reg.ProjectID, subcontractor: reg.SubcontractorID}

	stored := *reg
	if existing, ok := s.registrations[key]; ok {
		stored.CreatedAt = existing.CreatedAt
		// Standing is owned by SetStatus; upserting registration details
		// must not reset it.
		stored.Status = existing.Status
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.registrations[key] = &stored
	return nil
}

func (s *InMemoryProjectSubcontractorStore) Get(_ context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID) (*compliance.ProjectSubcontractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.registrations[pairKey{project: projectID, subcontractor: subcontractorID}]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "subcontractor %s is not registered on project %s", subcontractorID, projectID)
	}
	copied := *reg
	return &copied, nil
}

func (s *InMemoryProjectSubcontractorStore) SetStatus(ctx context.Context, projectID id.ProjectID, subcontractorID id.SubcontractorID, status compliance.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[pairKey{project: projectID, subcontractor: subcontractorID}]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "subcontractor %s is not registered on project %s", subcontractorID, projectID)
	}
	reg.Status = status
	reg.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemoryProjectSubcontractorStore) ListByProject(_ context.Context, projectID id.ProjectID) ([]compliance.ProjectSubcontractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]compliance.ProjectSubcontractor, 0)
	for key, reg := range s.registrations {
		if key.project == projectID {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubcontractorName < out[j].SubcontractorName
	})
	return out, nil
}
