package silo

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests so package tests never
// need a live Redis. It implements the same list/hash/key/scan vocabulary,
// including TTL expiry, checked lazily on access (the same externally
// observable behavior as Redis's own lazy expiry).
type MemoryStore struct {
	mu      sync.Mutex
	lists   map[string]*list.List
	hashes  map[string]map[string]string
	kv      map[string]string
	expires map[string]time.Time

	// now is overridable by tests that need to simulate TTL expiry
	// without sleeping.
	now func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists:   make(map[string]*list.List),
		hashes:  make(map[string]map[string]string),
		kv:      make(map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) expired(key string) bool {
	deadline, ok := s.expires[key]
	if !ok {
		return false
	}
	return !s.now().Before(deadline)
}

// evictIfExpired removes every representation of key if its TTL has
// passed. Caller must hold s.mu.
func (s *MemoryStore) evictIfExpired(key string) {
	if !s.expired(key) {
		return
	}
	delete(s.hashes, key)
	delete(s.kv, key)
	delete(s.expires, key)
}

func (s *MemoryStore) LLen(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok {
		return 0, nil
	}
	return int64(l.Len()), nil
}

func (s *MemoryStore) RPop(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok || l.Len() == 0 {
		return "", ErrNotFound
	}

	back := l.Back()
	l.Remove(back)
	return back.Value.(string), nil
}

func (s *MemoryStore) LPush(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok {
		l = list.New()
		s.lists[key] = l
	}
	l.PushFront(value)
	return nil
}

func (s *MemoryStore) HSet(_ context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (s *MemoryStore) HSetAll(_ context.Context, key string, mapping map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	for k, v := range mapping {
		h[k] = v
	}
	return nil
}

func (s *MemoryStore) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	h, ok := s.hashes[key]
	if !ok {
		return "", ErrNotFound
	}
	v, ok := h[field]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	h, ok := s.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}

	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	v, ok := s.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.kv[key] = value
	delete(s.expires, key)
	return nil
}

func (s *MemoryStore) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.kv[key] = value
	s.expires[key] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	_, inHash := s.hashes[key]
	_, inKV := s.kv[key]
	if !inHash && !inKV {
		return false, nil
	}
	s.expires[key] = s.now().Add(ttl)
	return true, nil
}

// TTL returns the remaining TTL for key, and whether the key has one at
// all. Test-only helper, not part of the Store interface.
func (s *MemoryStore) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictIfExpired(key)
	deadline, ok := s.expires[key]
	if !ok {
		return 0, false
	}
	return deadline.Sub(s.now()), true
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.hashes, key)
	delete(s.kv, key)
	delete(s.lists, key)
	delete(s.expires, key)
	return nil
}

func (s *MemoryStore) Scan(_ context.Context, pattern string, _ int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k := range s.hashes {
		if s.expired(k) {
			continue
		}
		if matched, _ := matchGlob(pattern, k); matched {
			keys = append(keys, k)
		}
	}
	for k := range s.kv {
		if s.expired(k) {
			continue
		}
		if matched, _ := matchGlob(pattern, k); matched {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

var _ Store = (*MemoryStore)(nil)
