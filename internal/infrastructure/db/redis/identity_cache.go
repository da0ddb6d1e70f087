package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
)

const identityTTL = 60 * time.Second

// IdentityCache caches user snapshots keyed by normalized email, avoiding a
// user-collection read on every authenticated request. It is never
// authoritative: mutating write paths call Invalidate synchronously before
// reporting success, and the short TTL only covers external writers.
// Key format: identity:<email>
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdentityCache creates an IdentityCache wrapping the given Redis client.
func NewIdentityCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *IdentityCache {
	if ttl <= 0 {
		ttl = identityTTL
	}
	return &IdentityCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached user snapshot for the email, if present. Cache
// failures degrade to a miss: the store remains the source of truth.
func (c *IdentityCache) Get(ctx context.Context, email string) (*domain.User, bool) {
	raw, err := c.client.Get(ctx, c.key(email)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("identity cache read failed")
		}
		return nil, false
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		c.logger.Warn().Err(err).Msg("identity cache entry corrupt, dropping")
		c.Invalidate(ctx, email)
		return nil, false
	}
	return &user, true
}

// Set stores a user snapshot (expires after the cache TTL). The password
// hash is stripped before serialization; the cache only serves authorization
// lookups, never credential checks.
func (c *IdentityCache) Set(ctx context.Context, user *domain.User) {
	snapshot := *user
	snapshot.PasswordHash = ""

	raw, err := json.Marshal(&snapshot)
	if err != nil {
		c.logger.Warn().Err(err).Msg("identity cache encode failed")
		return
	}
	if err := c.client.Set(ctx, c.key(user.Email), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("identity cache write failed")
	}
}

// Invalidate removes the cache entry for the email.
func (c *IdentityCache) Invalidate(ctx context.Context, email string) {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("identity cache invalidate failed")
	}
}

func (c *IdentityCache) key(email string) string {
	return "identity:" + domain.NormalizeEmail(email)
}
