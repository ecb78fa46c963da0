package store

import (
	"context"
	"sync"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	dErrors "certguard/pkg/domain-errors"
)

// InMemoryStore keeps requirements in a map keyed by requirement ID with a
// secondary index by project.
type InMemoryStore struct {
	mu           sync.RWMutex
	requirements map[id.RequirementID]*verification.CoverageRequirement
	byProject    map[id.ProjectID][]id.RequirementID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		requirements: make(map[id.RequirementID]*verification.CoverageRequirement),
		byProject:    make(map[id.ProjectID][]id.RequirementID),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, req *verification.CoverageRequirement) error {
	if req == nil {
		return dErrors.New(dErrors.CodeBadRequest, "requirement is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *req
	if stored.ID.IsNil() {
		stored.ID = id.NewRequirementID()
		req.ID = stored.ID
	}

	if existing, ok := s.requirements[stored.ID]; ok {
		// Replacing a row that moved projects requires reindexing.
		if existing.ProjectID != stored.ProjectID {
			s.removeFromProject(existing.ProjectID, stored.ID)
			s.byProject[stored.ProjectID] = append(s.byProject[stored.ProjectID], stored.ID)
		}
	} else {
		s.byProject[stored.ProjectID] = append(s.byProject[stored.ProjectID], stored.ID)
	}

	s.requirements[stored.ID] = &stored
	return nil
}

func (s *InMemoryStore) ListByProject(_ context.Context, projectID id.ProjectID) ([]verification.CoverageRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byProject[projectID]
	out := make([]verification.CoverageRequirement, 0, len(ids))
	for _, reqID := range ids {
		if req, ok := s.requirements[reqID]; ok {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, projectID id.ProjectID, requirementID id.RequirementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requirements[requirementID]
	if !ok || req.ProjectID != projectID {
		return dErrors.Newf(dErrors.CodeNotFound, "requirement %s not found", requirementID)
	}
	s.removeFromProject(req.ProjectID, requirementID)
	delete(s.requirements, requirementID)
	return nil
}

func (s *InMemoryStore) removeFromProject(projectID id.ProjectID, requirementID id.RequirementID) {
	ids := s.byProject[projectID]
	for i, existing := range ids {
		if existing == requirementID {
			s.byProject[projectID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}
