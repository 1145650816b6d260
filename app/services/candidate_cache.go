// Package services provides external service integrations and technical concerns like caching and report generation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/podmatch/podmatch/config"
	"github.com/redis/go-redis/v9"
)

// CandidateCache caches the candidate podcast IDs retrieved for a campaign so
// repeated scoring runs skip the vector index scan while embeddings are
// stable. A cache miss is never an error; the index is always authoritative.
type CandidateCache interface {
	GetCandidates(ctx context.Context, campaignID uint) ([]uint, bool)
	SetCandidates(ctx context.Context, campaignID uint, podcastIDs []uint)
	Invalidate(ctx context.Context, campaignID uint) error
	Healthy(ctx context.Context) error
}

// RedisCandidateCache implements CandidateCache backed by Redis
type RedisCandidateCache struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCandidateCache creates a candidate cache from the cache config
func NewRedisCandidateCache(rc *redis.Client, cfg config.CacheConfig) *RedisCandidateCache {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCandidateCache{
		rc:     rc,
		prefix: cfg.RedisPrefix,
		ttl:    ttl,
	}
}

func (c *RedisCandidateCache) key(campaignID uint) string {
	return fmt.Sprintf("%scandidates:%d", c.prefix, campaignID)
}

// GetCandidates returns the cached candidate set, reporting whether it was
// present. Redis errors degrade to a miss.
func (c *RedisCandidateCache) GetCandidates(ctx context.Context, campaignID uint) ([]uint, bool) {
	if c == nil || c.rc == nil {
		return nil, false
	}

	raw, err := c.rc.Get(ctx, c.key(campaignID)).Result()
	if err != nil {
		return nil, false
	}

	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// SetCandidates stores the candidate set with the configured TTL.
// Failures are ignored; caching is best effort.
func (c *RedisCandidateCache) SetCandidates(ctx context.Context, campaignID uint, podcastIDs []uint) {
	if c == nil || c.rc == nil {
		return
	}

	payload, err := json.Marshal(podcastIDs)
	if err != nil {
		return
	}
	_ = c.rc.Set(ctx, c.key(campaignID), payload, c.ttl).Err()
}

// Invalidate drops the cached candidate set for a campaign
func (c *RedisCandidateCache) Invalidate(ctx context.Context, campaignID uint) error {
	if c == nil || c.rc == nil {
		return nil
	}
	return c.rc.Del(ctx, c.key(campaignID)).Err()
}

// Healthy pings the Redis backend
func (c *RedisCandidateCache) Healthy(ctx context.Context) error {
	if c == nil || c.rc == nil {
		return fmt.Errorf("redis client not configured")
	}
	return c.rc.Ping(ctx).Err()
}
