package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dunamismax/photocompress/internal/domain"
)

type MemoryUsageStore struct {
	mu   sync.RWMutex
	logs []domain.UsageLog
}

func NewMemoryUsageStore() *MemoryUsageStore {
	return &MemoryUsageStore{}
}

func (s *MemoryUsageStore) CreateUsageLog(_ context.Context, usage domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, usage)
	return nil
}

func (s *MemoryUsageStore) ListUsageLogs(_ context.Context, limit int) ([]domain.UsageLog, error) {
	s.mu.RLock()
	out := append([]domain.UsageLog(nil), s.logs...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryUsageStore) GetUsageLog(_ context.Context, runID string) (domain.UsageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].RunID == runID {
			return s.logs[i], nil
		}
	}
	return domain.UsageLog{}, ErrNotFound
}
