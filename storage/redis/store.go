package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/poiesic/answerit/storage"
)

const scanBatchSize = 100

// Store implements storage.CacheStore over a Redis connection.
type Store struct {
	client *redis.Client
}

var _ storage.CacheStore = (*Store)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewStore connects to Redis and verifies the connection.
// Returns the storage.CacheStore interface to enforce abstraction.
func NewStore(opts Options) (storage.CacheStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing Redis client.
// The caller keeps ownership of the client lifecycle checks; Close still
// closes the client.
func NewStoreWithClient(client *redis.Client) storage.CacheStore {
	return &Store{client: client}
}

// Set stores value under key. A ttl of zero means the key never expires.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key.
// A missing or expired key is a clean miss, not an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return res, true, nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key starting with prefix using incremental
// SCAN batches. Returns the number of keys removed.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	var cursor uint64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis del failed: %w", err)
			}
			deleted += n
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// ZAdd adds member to the scored set stored under set.
func (s *Store) ZAdd(ctx context.Context, set, member string, score float64) error {
	err := s.client.ZAdd(ctx, set, redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		return fmt.Errorf("redis zadd failed: %w", err)
	}
	return nil
}

// ZMembers returns all members of the scored set in ascending score order.
func (s *Store) ZMembers(ctx context.Context, set string) ([]string, error) {
	members, err := s.client.ZRange(ctx, set, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange failed: %w", err)
	}
	return members, nil
}

// ZCard returns the number of members in the scored set.
func (s *Store) ZCard(ctx context.Context, set string) (int64, error) {
	count, err := s.client.ZCard(ctx, set).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard failed: %w", err)
	}
	return count, nil
}

// ZPopMin removes and returns the member with the lowest score.
func (s *Store) ZPopMin(ctx context.Context, set string) (string, bool, error) {
	vals, err := s.client.ZPopMin(ctx, set).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis zpopmin failed: %w", err)
	}
	if len(vals) == 0 {
		return "", false, nil
	}
	member, _ := vals[0].Member.(string)
	return member, true, nil
}

// IncrCounter atomically adds delta to a counter field under key.
func (s *Store) IncrCounter(ctx context.Context, key, field string, delta int64) error {
	if err := s.client.HIncrBy(ctx, key, field, delta).Err(); err != nil {
		return fmt.Errorf("redis hincrby failed: %w", err)
	}
	return nil
}

// Counters returns all counter fields stored under key.
func (s *Store) Counters(ctx context.Context, key string) (map[string]int64, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	counters := make(map[string]int64, len(fields))
	for field, raw := range fields {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter field %s holds non-integer %q: %w", field, raw, err)
		}
		counters[field] = value
	}
	return counters, nil
}

// Ping checks that the Redis connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
