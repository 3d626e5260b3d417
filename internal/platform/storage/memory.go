package storage

import (
	"context"
	"sync"

	apperrors "reward-bot/internal/common/errors"
)

// MemoryStore is a process-local Store. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("document", name)
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, name string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.docs[name] = buf
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Init(ctx context.Context, defaults map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, data := range defaults {
		if _, ok := s.docs[name]; ok {
			continue
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		s.docs[name] = buf
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
