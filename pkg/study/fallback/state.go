// Package fallback tracks whether the upstream AI provider is currently
// refusing work (quota, rate limit, outage) and gates every AI call on it.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// DefaultResetAfter is how long the flag stays set when nothing clears it.
const DefaultResetAfter = 10 * time.Minute

type Status struct {
	QuotaExceeded bool      `json:"quotaExceeded"`
	Since         time.Time `json:"since,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Code          string    `json:"code,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
}

// State is the quota-exceeded flag. Implementations are safe for concurrent use.
type State interface {
	MarkExceeded(ctx context.Context, code, reason string)
	Status(ctx context.Context) Status
	IsExceeded(ctx context.Context) bool
	Reset(ctx context.Context)
}

const stateKey = "quota"

// MemoryState keeps the flag in process memory. The entry expires after the
// configured TTL, which clears the flag.
type MemoryState struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryState(ttl time.Duration) *MemoryState {
	if ttl <= 0 {
		ttl = DefaultResetAfter
	}
	return &MemoryState{
		cache: cache.New(ttl, time.Minute),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryState) MarkExceeded(ctx context.Context, code, reason string) {
	now := s.now()
	s.cache.Set(stateKey, Status{
		QuotaExceeded: true,
		Since:         now,
		Reason:        reason,
		Code:          code,
		ExpiresAt:     now.Add(s.ttl),
	}, cache.DefaultExpiration)
}

func (s *MemoryState) Status(ctx context.Context) Status {
	if x, found := s.cache.Get(stateKey); found {
		return x.(Status)
	}
	return Status{}
}

func (s *MemoryState) IsExceeded(ctx context.Context) bool {
	return s.Status(ctx).QuotaExceeded
}

func (s *MemoryState) Reset(ctx context.Context) {
	s.cache.Delete(stateKey)
}

// RedisState shares the flag between instances through a single key with a TTL.
// When Redis is unreachable it degrades to a local MemoryState.
type RedisState struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	local  *MemoryState
}

func NewRedisState(client *redis.Client, key string, ttl time.Duration) *RedisState {
	if ttl <= 0 {
		ttl = DefaultResetAfter
	}
	if key == "" {
		key = "studyquiz:ai:quota"
	}
	return &RedisState{
		client: client,
		key:    key,
		ttl:    ttl,
		local:  NewMemoryState(ttl),
	}
}

func (s *RedisState) MarkExceeded(ctx context.Context, code, reason string) {
	s.local.MarkExceeded(ctx, code, reason)

	payload, err := json.Marshal(s.local.Status(ctx))
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, s.key, payload, s.ttl).Err()
}

func (s *RedisState) Status(ctx context.Context) Status {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}
	}
	if err != nil {
		return s.local.Status(ctx)
	}

	var st Status
	if err := json.Unmarshal(raw, &st); err != nil {
		return s.local.Status(ctx)
	}
	return st
}

func (s *RedisState) IsExceeded(ctx context.Context) bool {
	return s.Status(ctx).QuotaExceeded
}

func (s *RedisState) Reset(ctx context.Context) {
	s.local.Reset(ctx)
	_ = s.client.Del(ctx, s.key).Err()
}
