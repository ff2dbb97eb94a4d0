// Package memory is an in-process kv.Store used for tests and ephemeral runs.
package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

var ErrUnavailable = errors.New("memory store unavailable")

type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
	failing bool
}

func New() *Store {
	return &Store{entries: make(map[string][]byte)}
}

// SetFailing makes every subsequent call return ErrUnavailable until reset.
func (s *Store) SetFailing(failing bool) {
	s.mu.Lock()
	s.failing = failing
	s.mu.Unlock()
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing {
		return nil, false, ErrUnavailable
	}
	val, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	s.entries[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	delete(s.entries, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *Store) Close() error { return nil }
