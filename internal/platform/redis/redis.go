package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"placelink/internal/logger"

	redisv8 "github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

type Options struct {
	Addr     string
	Password string
}

type Service struct {
	client *redisv8.Client
	log    *logger.Logger
}

func New(opts Options) (*Service, error) {
	c := redisv8.NewClient(&redisv8.Options{Addr: opts.Addr, Password: opts.Password})
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Service{client: c, log: logger.New("Redis")}, nil
}

func (s *Service) Close() error            { return s.client.Close() }
func (s *Service) Client() *redisv8.Client { return s.client }

func (s *Service) HealthCheck(ctx context.Context) error {
	// 1. Basic ping check
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.log.LogErrorf("Redis health check failed: %v", err)
		return fmt.Errorf("redis ping failed: %v", err)
	}

	// 2. Simple write/read test to verify Redis is working
	testKey := "health:test:" + time.Now().Format("20060102150405")
	testValue := "ok"

	err := s.client.Set(ctx, testKey, testValue, 10*time.Second).Err()
	if err != nil {
		return fmt.Errorf("redis write test failed: %v", err)
	}

	val, err := s.client.Get(ctx, testKey).Result()
	if err != nil {
		return fmt.Errorf("redis read test failed: %v", err)
	}

	if val != testValue {
		return fmt.Errorf("redis value mismatch: got %s, want %s", val, testValue)
	}

	_ = s.client.Del(ctx, testKey).Err()

	return nil
}

func (s *Service) AsynqRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: s.client.Options().Addr, Password: s.client.Options().Password}
}

// Cache helpers

func (s *Service) CacheGet(ctx context.Context, key string, dest interface{}) error {
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

// CacheSet stores val as JSON under key with a single atomic SET ... EX.
func (s *Service) CacheSet(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// Lock helpers

// AcquireLock takes a short-TTL mutual-exclusion lock via SETNX ... EX.
// It returns false when another holder already owns the key.
func (s *Service) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, token, ttl).Result()
}

// releaseScript deletes the lock only while we still own it, so a slow
// worker cannot delete a lock that has expired and been re-acquired.
var releaseScript = redisv8.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseLock is a token-checked delete. Returns true when the lock was
// held by token and deleted, false when it expired or changed owner.
func (s *Service) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{key}, token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Pub/sub helpers

func (s *Service) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

func (s *Service) Subscribe(ctx context.Context, channel string) *redisv8.PubSub {
	return s.client.Subscribe(ctx, channel)
}
