package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "techblog:rl:"

// hitScript атомарно увеличивает счётчик и ставит TTL окна при первом запросе.
// Возвращает {count, pttl_ms}.
var hitScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {c, ttl}
`)

// RedisStore - общий для нескольких инстансов счётчик в Redis.
// Истечение окна обеспечивает TTL ключа.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой - используется "techblog:rl:".
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ratelimit: redis ping: %w", err)
	}

	return NewRedisStoreFromClient(rdb, prefix), nil
}

// NewRedisStoreFromClient оборачивает готовый клиент.
func NewRedisStoreFromClient(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Hit учитывает запрос. Часы Redis задают границу окна, now лишь пересчитывает её в ResetAt.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	const op = "ratelimit.RedisStore.Hit"

	res, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(res) != 2 {
		return Entry{}, fmt.Errorf("%s: unexpected script reply %v", op, res)
	}

	return Entry{
		Count:   res[0],
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Close закрывает клиент Redis.
func (s *RedisStore) Close() error { return s.rdb.Close() }
