package ratelimit

import (
	"context"
	"fmt"
	"time"

	"contact-relay/internal/models"
	"contact-relay/internal/util"
)

const redisKeyPrefix = "rate_limit:contact:"

// fixedWindowScript reads, compares and increments in one atomic step so
// concurrent relays cannot undercount a burst. A rejected hit does not
// increment.
const fixedWindowScript = `
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

if current >= limit then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], window)
    ttl = window
  end
  return {0, current, ttl}
end

current = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
  ttl = window
end
return {1, current, ttl}
`

// ScriptRunner is the slice of the Redis client the store needs.
type ScriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
	HealthCheck(ctx context.Context) error
}

// RedisStore shares the rate-limit table between relay instances.
type RedisStore struct {
	client ScriptRunner
	now    Clock
}

func NewRedisStore(client ScriptRunner, clock Clock) *RedisStore {
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{client: client, now: clock}
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (models.RateLimitDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result, err := s.client.Eval(ctx, fixedWindowScript, []string{redisKeyPrefix + key},
		limit, window.Milliseconds())
	if err != nil {
		return models.RateLimitDecision{}, fmt.Errorf("failed to execute rate limit script: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return models.RateLimitDecision{}, fmt.Errorf("unexpected result format from rate limit script: %T", result)
	}
	allowed, ok1 := values[0].(int64)
	count, ok2 := values[1].(int64)
	ttl, ok3 := values[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return models.RateLimitDecision{}, fmt.Errorf("unexpected value types from rate limit script")
	}

	decision := models.RateLimitDecision{
		Allowed:   allowed == 1,
		Count:     int(count),
		Limit:     limit,
		ResetTime: s.now().Add(time.Duration(ttl) * time.Millisecond),
	}

	util.Debug("Rate limit script evaluated",
		util.Bool("allowed", decision.Allowed),
		util.Int("count", decision.Count),
		util.Int("limit", limit))

	return decision, nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *RedisStore) Name() string {
	return "redis"
}
