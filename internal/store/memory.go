package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process TableStore used by tests and local development.
type Memory struct {
	mu sync.RWMutex
	m  map[string]map[string]Entity
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]map[string]Entity)}
}

func (s *Memory) Get(_ context.Context, partition, key string) (Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[partition][key]
	if !ok {
		return Entity{}, ErrNotFound
	}
	return clone(e), nil
}

func (s *Memory) List(_ context.Context, partition string) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.m[partition]
	out := make([]Entity, 0, len(rows))
	for _, e := range rows {
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Memory) Insert(_ context.Context, e Entity) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.m[e.Partition][e.Key]; exists {
		return Entity{}, ErrConflict
	}
	e.ETag = uuid.NewString()
	e.UpdatedAt = time.Now().UTC()
	if s.m[e.Partition] == nil {
		s.m[e.Partition] = make(map[string]Entity)
	}
	s.m[e.Partition][e.Key] = clone(e)
	return e, nil
}

func (s *Memory) Update(_ context.Context, e Entity) (Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[e.Partition][e.Key]
	if !ok {
		return Entity{}, ErrNotFound
	}
	if cur.ETag != e.ETag {
		return Entity{}, ErrConflict
	}
	e.ETag = uuid.NewString()
	e.UpdatedAt = time.Now().UTC()
	s.m[e.Partition][e.Key] = clone(e)
	return e, nil
}

func (s *Memory) Delete(_ context.Context, partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[partition][key]; !ok {
		return ErrNotFound
	}
	delete(s.m[partition], key)
	return nil
}

func clone(e Entity) Entity {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	e.Body = body
	return e
}
