package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lotkeeper:bidsession:"

// RedisTable keeps sessions in Redis so several server replicas share them.
// Redis key expiry does the eviction.
type RedisTable struct {
	client *redis.Client
	clock  timex.Clock
}

// NewRedisTable connects and pings the server.
func NewRedisTable(ctx context.Context, addr, password string, db int, clock timex.Clock) (*RedisTable, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisTable{client: rdb, clock: clock}, nil
}

func key(userID string) string {
	return keyPrefix + userID
}

func (t *RedisTable) Put(ctx context.Context, userID string, s Session) error {
	ttl := s.ExpiresAt.Sub(t.clock.Now())
	if ttl <= 0 {
		return t.Delete(ctx, userID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := t.client.Set(ctx, key(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (t *RedisTable) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := t.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !t.clock.Now().Before(s.ExpiresAt) {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (t *RedisTable) Delete(ctx context.Context, userID string) error {
	if err := t.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (t *RedisTable) Close() error {
	return t.client.Close()
}
