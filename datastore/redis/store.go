// Package redis stores settings in a Redis hash named after the namespace.
package redis

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Store takes a pooled connection for every command, so a connection broken
// by a server restart is replaced on the next call.
type Store struct {
	pool *redis.Pool
	hash string

	mu      sync.Mutex
	pending map[string][]byte
}

// NewPool returns a connection pool for the Redis server at rawURL.
func NewPool(rawURL string) (*redis.Pool, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(rawURL)
		},
	}, nil
}

func NewStore(pool *redis.Pool, namespace string) *Store {
	return &Store{
		pool:    pool,
		hash:    fmt.Sprintf("settings:%s", namespace),
		pending: make(map[string][]byte),
	}
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.pending[key]; ok {
		return append([]byte(nil), v...), true, nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	v, err := redis.Bytes(conn.Do("HGET", s.hash, key))
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	return v, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = append([]byte(nil), value...)
	return nil
}

// Synchronize writes all buffered values with a single HSET.
func (s *Store) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("HSET", redis.Args{}.Add(s.hash).AddFlat(s.pending)...); err != nil {
		return err
	}

	s.pending = make(map[string][]byte)
	return nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}
