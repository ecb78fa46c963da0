//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"certguard/internal/verification"
	id "certguard/pkg/domain"
	"certguard/pkg/testutil/containers"
)

// =============================================================================
// Cached Requirements Store Integration Test Suite
// =============================================================================

type CachedStoreIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	redis     *containers.RedisContainer
	next      *InMemoryStore
	store     *CachedStore
	projectID id.ProjectID
}

func TestCachedStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreIntegrationSuite))
}

func (s *CachedStoreIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedStoreIntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.next = NewMemory()
	s.store = NewCached(s.next, s.redis.Client, WithTTL(time.Minute))
	s.projectID = id.NewProjectID()
}

func (s *CachedStoreIntegrationSuite) upsert() *verification.CoverageRequirement {
	minimum := int64(20_000_000)
	req := &verification.CoverageRequirement{
		ProjectID:    s.projectID,
		CoverageType: verification.CoveragePublicLiability,
		MinimumLimit: &minimum,
	}
	s.Require().NoError(s.store.Upsert(s.ctx, req))
	return req
}

func (s *CachedStoreIntegrationSuite) cacheKey() string {
	return requirementsKeyPrefix + s.projectID.String()
}

func (s *CachedStoreIntegrationSuite) TestReadThrough() {
	req := s.upsert()

	// First read misses and populates the cache.
	listed, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(req.ID, listed[0].ID)

	exists, err := s.redis.Client.Exists(s.ctx, s.cacheKey()).Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists)

	// Second read is served from the cache: mutate the backing store
	// directly and confirm the stale copy comes back.
	s.Require().NoError(s.next.Delete(s.ctx, s.projectID, req.ID))

	listed, err = s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *CachedStoreIntegrationSuite) TestUpsertInvalidates() {
	req := s.upsert()

	_, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)

	updated := *req
	minimum := int64(10_000_000)
	updated.MinimumLimit = &minimum
	s.Require().NoError(s.store.Upsert(s.ctx, &updated))

	listed, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(int64(10_000_000), *listed[0].MinimumLimit)
}

func (s *CachedStoreIntegrationSuite) TestDeleteInvalidates() {
	req := s.upsert()

	_, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, s.projectID, req.ID))

	listed, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *CachedStoreIntegrationSuite) TestCorruptEntryFallsThrough() {
	req := s.upsert()

	s.Require().NoError(s.redis.Client.Set(s.ctx, s.cacheKey(), "{not json", time.Minute).Err())

	listed, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(req.ID, listed[0].ID)
}

func (s *CachedStoreIntegrationSuite) TestEmptyProjectIsCachedAsEmpty() {
	listed, err := s.store.ListByProject(s.ctx, s.projectID)
	s.Require().NoError(err)
	s.Empty(listed)

	exists, err := s.redis.Client.Exists(s.ctx, s.cacheKey()).Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists, "unconfigured projects cache the empty set")
}
