package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"toolgate/internal/enrollment/metrics"
	"toolgate/internal/enrollment/models"
	"toolgate/internal/enrollment/ports"
	"toolgate/pkg/domain"
)

const accessibleKeyPrefix = "enrollment:accessible:"

// Redis decorates a Provider with a short-TTL cache of accessible-course
// sets. Decision checks hit this path on nearly every request, so even a
// small TTL takes most of the load off the learning platform. Cache failures
// degrade to the underlying provider; they never fabricate or deny access on
// their own.
//
// CourseCompletions is deliberately not cached. It feeds snapshot and
// progress computation, which needs fresh completion timestamps.
type Redis struct {
	next   ports.Provider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis wraps next with a Redis-backed accessible-set cache.
func NewRedis(next ports.Provider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) AccessibleCourseIDs(ctx context.Context, principal domain.Principal) ([]domain.CourseID, error) {
	key := accessibleKeyPrefix + principal.ID.String()

	if cached, ok := r.lookup(ctx, key); ok {
		metrics.CacheResults.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.CacheResults.WithLabelValues("miss").Inc()

	ids, err := r.next.AccessibleCourseIDs(ctx, principal)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, ids)
	return ids, nil
}

func (r *Redis) CourseCompletions(ctx context.Context, principal domain.Principal) ([]models.CourseCompletion, error) {
	return r.next.CourseCompletions(ctx, principal)
}

// Invalidate drops the cached accessible set for a user, used when a course
// completion webhook arrives so new access shows up immediately.
func (r *Redis) Invalidate(ctx context.Context, userID domain.UserID) {
	if err := r.client.Del(ctx, accessibleKeyPrefix+userID.String()).Err(); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate enrollment cache", "user_id", userID, "error", err)
	}
}

func (r *Redis) lookup(ctx context.Context, key string) ([]domain.CourseID, bool) {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.WarnContext(ctx, "enrollment cache read failed", "error", err)
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		r.logger.WarnContext(ctx, "enrollment cache entry corrupt", "key", key, "error", err)
		return nil, false
	}

	out := make([]domain.CourseID, len(ids))
	for i, id := range ids {
		out[i] = domain.CourseID(id)
	}
	return out, true
}

func (r *Redis) store(ctx context.Context, key string, ids []domain.CourseID) {
	// An empty accessible set is still a valid, cacheable answer.
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "enrollment cache write failed", "error", err)
	}
}
