package views

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
)

const redisKeyPrefix = "views:"

// RedisLedger stores one key per (video, viewer) with a TTL equal to the
// retention window. SETNX is the atomic insert-if-absent; Redis expires the
// key on its own.
type RedisLedger struct {
	client    *redis.Client
	counter   ViewCounter
	retention time.Duration
	clock     clockwork.Clock
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisLedger connects to Redis and verifies the connection.
func NewRedisLedger(ctx context.Context, opts RedisOptions, counter ViewCounter, retention time.Duration, clock clockwork.Clock) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisLedger{client: client, counter: counter, retention: retention, clock: clock}, nil
}

func redisKey(videoID, viewer string) string {
	return redisKeyPrefix + videoID + ":" + viewer
}

// Name implements Ledger.
func (l *RedisLedger) Name() string { return "redis" }

// Seen implements Ledger.
func (l *RedisLedger) Seen(ctx context.Context, videoID, viewer string) (bool, error) {
	defer observeLedger(l.Name(), "seen", time.Now())

	n, err := l.client.Exists(ctx, redisKey(videoID, viewer)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Record implements Ledger. If the counter update fails the key is removed
// again so the next request can retry.
func (l *RedisLedger) Record(ctx context.Context, videoID, viewer string) (bool, error) {
	defer observeLedger(l.Name(), "record", time.Now())

	key := redisKey(videoID, viewer)
	ok, err := l.client.SetNX(ctx, key, l.clock.Now().UnixMilli(), l.retention).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := l.counter.IncrementViews(ctx, videoID); err != nil {
		if delErr := l.client.Del(context.WithoutCancel(ctx), key).Err(); delErr != nil {
			log.Warn("failed to roll back view key %s: %v", key, delErr)
		}
		return false, err
	}
	return true, nil
}

// Ping checks the Redis connection.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}
