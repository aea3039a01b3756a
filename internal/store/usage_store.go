// Package store persists the per-run usage ledger.
package store

import (
	"context"
	"errors"

	"github.com/dunamismax/photocompress/internal/domain"
)

var ErrNotFound = errors.New("usage log not found")

type UsageStore interface {
	CreateUsageLog(ctx context.Context, usage domain.UsageLog) error
	// ListUsageLogs returns the most recent logs first.
	ListUsageLogs(ctx context.Context, limit int) ([]domain.UsageLog, error)
	GetUsageLog(ctx context.Context, runID string) (domain.UsageLog, error)
}

const defaultListLimit = 20

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
