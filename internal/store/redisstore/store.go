package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

const sweepLockKey = "asap:sweep:lock"

// AcquireSweepLock takes the sweeper leader lock. The sweep itself is
// idempotent; the lock only stops replicas from hammering the same rows.
func (s *Store) AcquireSweepLock(ctx context.Context, holder string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, sweepLockKey, holder, ttl).Result()
}

// ReleaseSweepLock drops the lock if we still hold it.
func (s *Store) ReleaseSweepLock(ctx context.Context, holder string) error {
	v, err := s.rdb.Get(ctx, sweepLockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if v != holder {
		return nil
	}
	return s.rdb.Del(ctx, sweepLockKey).Err()
}
