// Package memory provides a volatile key-value store, mainly for testing purposes.
package memory

import (
	"sync"
)

type Store struct {
	mu      sync.Mutex
	values  map[string][]byte
	pending map[string][]byte
}

func NewStore() *Store {
	return &Store{
		values:  make(map[string][]byte),
		pending: make(map[string][]byte),
	}
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.pending[key]; ok {
		return clone(v), true, nil
	}
	v, ok := s.values[key]
	return clone(v), ok, nil
}

func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = clone(value)
	return nil
}

func (s *Store) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.pending {
		s.values[k] = v
	}
	s.pending = make(map[string][]byte)
	return nil
}

// Synchronized returns the values that survived the last Synchronize,
// ignoring buffered writes.
func (s *Store) Synchronized() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]byte, len(s.values))
	for k, v := range s.values {
		out[k] = clone(v)
	}
	return out
}

func clone(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
