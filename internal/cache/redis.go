package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/itinerary/config"
	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	groupsTTL  time.Duration
	sessionTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, groupsTTL, sessionTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		groupsTTL:  groupsTTL,
		sessionTTL: sessionTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetTripGroups returns nil without error on a cache miss.
func (c *RedisCache) GetTripGroups(ctx context.Context) ([]domain.TripGroup, error) {
	data, err := c.client.Get(ctx, tripGroupsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var groups []domain.TripGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *RedisCache) SetTripGroups(ctx context.Context, groups []domain.TripGroup) error {
	if groups == nil {
		groups = []domain.TripGroup{}
	}
	payload, err := json.Marshal(groups)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tripGroupsKey(), payload, c.groupsTTL).Err()
}

func (c *RedisCache) InvalidateTripGroups(ctx context.Context) error {
	return c.client.Del(ctx, tripGroupsKey()).Err()
}

func (c *RedisCache) AcquireDeletionLock(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, deletionLockKey(token), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseDeletionLock(ctx context.Context, token string) error {
	return c.client.Del(ctx, deletionLockKey(token)).Err()
}

func (c *RedisCache) GetSession(ctx context.Context, id string) (*domain.ImportSession, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.NotFoundError{Resource: "import session", ID: id}
		}
		return nil, err
	}

	var session domain.ImportSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *RedisCache) SaveSession(ctx context.Context, session *domain.ImportSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.ID), payload, sessionExpiry(session, c.sessionTTL, time.Now())).Err()
}

func (c *RedisCache) DeleteSession(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}

// sessionExpiry keeps a session until its ExpiresAt, or for fallback when that is unset or already past.
func sessionExpiry(session *domain.ImportSession, fallback time.Duration, now time.Time) time.Duration {
	if session.ExpiresAt.IsZero() {
		return fallback
	}
	if ttl := session.ExpiresAt.Sub(now); ttl > 0 {
		return ttl
	}
	return time.Second
}

func tripGroupsKey() string {
	return "cache:trip_groups"
}

func deletionLockKey(token string) string {
	return "lock:deletion:" + token
}

func sessionKey(id string) string {
	return "import:session:" + id
}
