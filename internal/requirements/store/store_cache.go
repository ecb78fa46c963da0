package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"certguard/internal/requirements"
	"certguard/internal/verification"
	id "certguard/pkg/domain"
)

const (
	// Redis key prefix for per-project requirement lists
	requirementsKeyPrefix = "req:project:"

	defaultCacheTTL = 5 * time.Minute
)

// CachedStore is a read-through cache in front of a requirements store.
// Requirement sets change rarely but are read on every document verification,
// so list reads are served from Redis and invalidated on writes. Cache
// failures degrade to the underlying store.
type CachedStore struct {
	next   requirements.Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// CachedStoreOption configures a CachedStore instance.
type CachedStoreOption func(*CachedStore)

// WithTTL overrides the cache entry lifetime.
func WithTTL(ttl time.Duration) CachedStoreOption {
	return func(s *CachedStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for cache degradation events.
func WithCacheLogger(logger *slog.Logger) CachedStoreOption {
	return func(s *CachedStore) { s.logger = logger }
}

// NewCached wraps a store with a Redis read-through cache.
func NewCached(next requirements.Store, client *redis.Client, opts ...CachedStoreOption) *CachedStore {
	s := &CachedStore{
		next:   next,
		client: client,
		ttl:    defaultCacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *CachedStore) Upsert(ctx context.Context, req *verification.CoverageRequirement) error {
	if err := s.next.Upsert(ctx, req); err != nil {
		return err
	}
	s.invalidate(ctx, req.ProjectID)
	return nil
}

func (s *CachedStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]verification.CoverageRequirement, error) {
	key := requirementsKeyPrefix + projectID.String()

	cached, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var out []verification.CoverageRequirement
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
		// A corrupt entry falls through to the store and gets rewritten.
		s.invalidate(ctx, projectID)
	} else if !errors.Is(err, redis.Nil) && s.logger != nil {
		s.logger.WarnContext(ctx, "requirements cache read failed", "project_id", projectID, "error", err)
	}

	out, err := s.next.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(out); err == nil {
		if err := s.client.Set(ctx, key, encoded, s.ttl).Err(); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "requirements cache write failed", "project_id", projectID, "error", err)
		}
	}
	return out, nil
}

func (s *CachedStore) Delete(ctx context.Context, projectID id.ProjectID, requirementID id.RequirementID) error {
	if err := s.next.Delete(ctx, projectID, requirementID); err != nil {
		return err
	}
	s.invalidate(ctx, projectID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, projectID id.ProjectID) {
	key := requirementsKeyPrefix + projectID.String()
	if err := s.client.Del(ctx, key).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "requirements cache invalidation failed", "project_id", projectID, "error", err)
	}
}
