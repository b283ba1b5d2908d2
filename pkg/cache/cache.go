// Package cache is a two tier lookup cache: a process local map in
// front of an optional redis backend. The local tier answers repeat
// lookups within the TTL and is swept in the background; redis lets
// separate processes share results and survives restarts.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "playdl:"

// Store caches marshalled lookup results by key.
type Store struct {
	ttl   time.Duration
	local sync.Map
	rdb   *redis.Client

	done chan struct{}
	once sync.Once
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// New builds a local-only store sweeping expired entries at the given
// TTL.
func New(ttl time.Duration) *Store {
	s := &Store{ttl: ttl, done: make(chan struct{})}
	go s.sweep()
	return s
}

// NewWithRedis builds a store backed by the redis instance at redisURL.
// An unreachable instance degrades to the local tier with a warning; a
// malformed URL is an error.
func NewWithRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	s := New(ttl)

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis unreachable, caching locally only", "addr", opts.Addr, "err", err)
		_ = rdb.Close()
		return s, nil
	}

	s.rdb = rdb
	slog.Info("Connected cache to redis", "addr", opts.Addr)
	return s, nil
}

// Key builds a deterministic cache key from its parts.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:12])
}

// Get answers from the local tier first, then redis. A redis hit
// refills the local tier.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := s.local.Load(key); ok {
		e := val.(*entry)
		if time.Now().Before(e.expiresAt) {
			return e.data, true
		}
		s.local.Delete(key)
	}

	if s.rdb == nil {
		return nil, false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("Redis get failed", "key", key, "err", err)
		}
		return nil, false
	}

	s.local.Store(key, &entry{data: data, expiresAt: time.Now().Add(s.ttl)})
	return data, true
}

// Set stores data in both tiers.
func (s *Store) Set(ctx context.Context, key string, data []byte) {
	s.local.Store(key, &entry{data: data, expiresAt: time.Now().Add(s.ttl)})

	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		slog.Debug("Redis set failed", "key", key, "err", err)
	}
}

// Delete drops a key from both tiers.
func (s *Store) Delete(ctx context.Context, key string) {
	s.local.Delete(key)
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			slog.Debug("Redis delete failed", "key", key, "err", err)
		}
	}
}

// Close stops the sweeper and disconnects redis.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if s.rdb != nil {
			err = s.rdb.Close()
		}
	})
	return err
}

// sweep walks the local tier periodically and drops expired entries.
func (s *Store) sweep() {
	interval := s.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.local.Range(func(key, val any) bool {
				if e, ok := val.(*entry); ok && now.After(e.expiresAt) {
					s.local.Delete(key)
				}
				return true
			})
		}
	}
}
