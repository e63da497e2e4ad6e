package silo

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store implementation, backed by a single
// named silo's *redis.Client.
type RedisStore struct {
	client *redis.Client
}

// Connection describes how to reach one silo, as returned by the
// coordinator's GET /silos/get_all.
type Connection struct {
	Host     string
	Port     int
	Password string
	DB       int
	UseTLS   bool
}

// NewRedisStore dials a silo from its connection descriptor. Dialing is
// lazy in go-redis (no network round trip happens here); the first real
// command surfaces any connectivity problem.
func NewRedisStore(conn Connection) *RedisStore {
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conn.Host, conn.Port),
		Password: conn.Password,
		DB:       conn.DB,
	}
	if conn.UseTLS {
		opts.TLSConfig = &tls.Config{ServerName: conn.Host}
	}

	return &RedisStore{client: redis.NewClient(opts)}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) LLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("silo: llen %s: %w", key, err)
	}
	return n, nil
}

func (s *RedisStore) RPop(ctx context.Context, key string) (string, error) {
	v, err := s.client.RPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("silo: rpop %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) LPush(ctx context.Context, key string, value string) error {
	if err := s.client.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("silo: lpush %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HSet(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("silo: hset %s[%s]: %w", key, field, err)
	}
	return nil
}

func (s *RedisStore) HSetAll(ctx context.Context, key string, mapping map[string]string) error {
	if len(mapping) == 0 {
		return nil
	}

	args := make(map[string]any, len(mapping))
	for k, v := range mapping {
		args[k] = v
	}

	if err := s.client.HSet(ctx, key, args).Err(); err != nil {
		return fmt.Errorf("silo: hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("silo: hget %s[%s]: %w", key, field, err)
	}
	return v, nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("silo: hgetall %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("silo: get %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("silo: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("silo: setex %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("silo: expire %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("silo: del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Scan(ctx context.Context, pattern string, count int64) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, count).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("silo: scan %s: %w", pattern, err)
	}
	return keys, nil
}

var _ Store = (*RedisStore)(nil)
