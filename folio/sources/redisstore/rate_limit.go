package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript returns -1 when the window is full, otherwise the new count.
// The key expires one window after its first hit, which starts a fresh window.
var hitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return -1
end
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return n
`)

type RateLimitStore struct {
	client    redis.Scripter
	keyPrefix string
}

func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRateLimitStore(client redis.Scripter, keyPrefix string) *RateLimitStore {
	if keyPrefix == "" {
		keyPrefix = "folio:ratelimit:"
	}
	return &RateLimitStore{client: client, keyPrefix: keyPrefix}
}

func (s *RateLimitStore) key(principalID, endpoint string) string {
	return s.keyPrefix + endpoint + ":" + principalID
}

// Hit has the same contract as the SQL counters. now is unused: the window
// is tracked by the key's TTL on the Redis server clock.
func (s *RateLimitStore) Hit(ctx context.Context, principalID, endpoint string, max int, window time.Duration, now time.Time) (int, bool, error) {
	n, err := hitScript.Run(ctx, s.client,
		[]string{s.key(principalID, endpoint)},
		max, window.Milliseconds(),
	).Int64()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return max, false, nil
	}
	return int(n), true, nil
}
