// Package redis provides Redis-backed persistence. Records are stored as
// JSON values under namespaced keys; run transitions execute as a Lua script
// so the conditional status check is atomic on the server.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "flowgrid"

// Persistence implements persistence.Persistence on top of Redis.
type Persistence struct {
	client redis.UniversalClient
}

// NewPersistence creates a Redis persistence from a redis:// URL.
func NewPersistence(databaseURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

// Close closes the Redis connection.
func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// HealthCheck pings the Redis server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func key(kind, id string) string {
	return keyPrefix + ":" + kind + ":" + id
}

func (p *Persistence) get(ctx context.Context, kind, id string, out any) (bool, error) {
	raw, err := p.client.Get(ctx, key(kind, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}

		return false, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}

	err = json.Unmarshal(raw, out)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s %s: %w", kind, id, err)
	}

	return true, nil
}

func (p *Persistence) set(ctx context.Context, kind, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}

	err = p.client.Set(ctx, key(kind, id), raw, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set %s %s: %w", kind, id, err)
	}

	return nil
}

func (p *Persistence) scanIDs(ctx context.Context, kind string) ([]string, error) {
	var (
		cursor uint64
		ids    []string
	)

	prefix := key(kind, "")

	for {
		keys, next, err := p.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s keys: %w", kind, err)
		}

		for _, k := range keys {
			ids = append(ids, strings.TrimPrefix(k, prefix))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return ids, nil
}
