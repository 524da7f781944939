package security

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims, counts and conditionally records in one atomic step.
// Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - interval)
local count = redis.call('ZCARD', key) + 1
if count > limit then
  return {0, count}
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, interval)
return {1, count}
`)

// RedisWindowStore shares sliding windows between instances through Redis sorted sets.
type RedisWindowStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisWindowStore creates a store writing keys under prefix.
func NewRedisWindowStore(client redis.UniversalClient, prefix string) *RedisWindowStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisWindowStore{client: client, prefix: prefix, now: time.Now}
}

// Allow implements WindowStore.
func (s *RedisWindowStore) Allow(ctx context.Context, key string, limit int, interval time.Duration) (WindowResult, error) {
	now := s.now()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(), interval.Milliseconds(), limit, member).Int64Slice()
	if err != nil {
		return WindowResult{}, fmt.Errorf("sliding window: %w", err)
	}
	if len(res) != 2 {
		return WindowResult{}, fmt.Errorf("sliding window: unexpected reply %v", res)
	}
	return WindowResult{Allowed: res[0] == 1, Count: int(res[1]), Limit: limit}, nil
}
