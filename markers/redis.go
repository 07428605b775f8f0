package markers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the marker store for deployments that keep per-browser session
// state server-side. Keys are scoped by a deployment prefix plus the browser
// session identifier so two tabs of different visitors never share markers.
type Redis struct {
	client *redis.Client
	prefix string
	scope  string
	maxTTL time.Duration
}

// NewRedis describes the newredis operation and its observable behavior.
//
// maxTTL bounds every marker's lifetime: a marker must not outlive the
// browsing session even if the caller passes a zero TTL.
func NewRedis(client *redis.Client, prefix, scope string, maxTTL time.Duration) *Redis {
	if prefix == "" {
		prefix = "af"
	}
	if maxTTL <= 0 {
		maxTTL = 12 * time.Hour
	}
	return &Redis{client: client, prefix: prefix, scope: scope, maxTTL: maxTTL}
}

func (r *Redis) key(name string) string {
	return r.prefix + ":" + r.scope + ":" + name
}

// Set describes the set operation and its observable behavior.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 || ttl > r.maxTTL {
		ttl = r.maxTTL
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// Delete describes the delete operation and its observable behavior.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	scoped := make([]string, len(keys))
	for i, key := range keys {
		scoped[i] = r.key(key)
	}
	if err := r.client.Del(ctx, scoped...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
