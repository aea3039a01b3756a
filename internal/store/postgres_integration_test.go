//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresUsageStore(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("photocompress_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresUsageStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"run-a", "run-b"} {
		require.NoError(t, s.CreateUsageLog(ctx, domain.UsageLog{
			RunID:           id,
			Files:           2,
			Format:          domain.FormatJPEG,
			PixelsProcessed: 1000,
			SourceBytes:     5000,
			OutputBytes:     1200,
			BytesSaved:      3800,
			ComputeTimeMS:   42,
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
		}))
	}

	logs, err := s.ListUsageLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "run-b", logs[0].RunID)
	assert.Equal(t, domain.FormatJPEG, logs[0].Format)
	assert.Equal(t, int64(3800), logs[0].BytesSaved)

	usage, err := s.GetUsageLog(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, usage.CreatedAt.Equal(base))

	_, err = s.GetUsageLog(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
