package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/folio/internal/domain"
)

const profileKeyPrefix = "folio:profile:"

// ProfileCache is a domain.ProfileCache backed by Redis, shared by every
// server instance.
type ProfileCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewProfileCache(client redis.UniversalClient, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.Dial: ping: %w", err)
	}

	return client, nil
}

// ProfileKey returns the Redis key holding the cached profile for slug.
func ProfileKey(slug string) string {
	return profileKeyPrefix + domain.NormalizeSlug(slug)
}

func (c *ProfileCache) Lookup(ctx context.Context, slug string) (*domain.Profile, error) {
	raw, err := c.client.Get(ctx, ProfileKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis.ProfileCache.Lookup: %w", err)
	}

	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("redis.ProfileCache.Lookup: decode: %w", err)
	}
	return &p, nil
}

func (c *ProfileCache) Store(ctx context.Context, p *domain.Profile) error {
	if p == nil || domain.NormalizeSlug(p.Slug) == "" {
		return fmt.Errorf("redis.ProfileCache.Store: %w", domain.ErrInvalidSlug)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis.ProfileCache.Store: encode: %w", err)
	}
	if err := c.client.Set(ctx, ProfileKey(p.Slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis.ProfileCache.Store: %w", err)
	}
	return nil
}

func (c *ProfileCache) Evict(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, ProfileKey(slug)).Err(); err != nil {
		return fmt.Errorf("redis.ProfileCache.Evict: %w", err)
	}
	return nil
}
