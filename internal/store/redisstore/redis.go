package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("redisstore: key not found")

type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (o Options) Addr() string {
	port := o.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", o.Host, port)
}

type Store struct {
	rdb *redis.Client
}

// New connects and pings the server. The ping is bounded to 5 seconds.
func New(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr(),
		Password: opts.Password,
		DB:       opts.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr(), err)
	}
	return &Store{rdb: rdb}, nil
}

// NewFromClient wraps an existing client without pinging it.
func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *Store) GetSession(ctx context.Context, id string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

// SetSession replaces the stored document and resets its expiry to ttl.
func (s *Store) SetSession(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKey(id), data, ttl).Err()
}

// DeleteSession reports whether a key was removed.
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) SessionTTL(ctx context.Context, id string) (time.Duration, error) {
	ttl, err := s.rdb.TTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return 0, err
	}
	// -2: missing key
	if ttl == -2 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

// CountSessions walks the keyspace with SCAN so a large keyspace never
// blocks the server.
func (s *Store) CountSessions(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, sessionKey("*"), 500).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
