package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/dunamismax/photocompress/internal/domain"
	_ "github.com/lib/pq"
)

const usageSchemaSQL = `
CREATE TABLE IF NOT EXISTS usage_logs (
	run_id TEXT PRIMARY KEY,
	files INTEGER NOT NULL,
	format TEXT NOT NULL,
	pixels_processed BIGINT NOT NULL,
	source_bytes BIGINT NOT NULL,
	output_bytes BIGINT NOT NULL,
	bytes_saved BIGINT NOT NULL,
	compute_time_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS usage_logs_created_at_idx ON usage_logs (created_at DESC);
`

var usageColumns = []string{
	"run_id",
	"files",
	"format",
	"pixels_processed",
	"source_bytes",
	"output_bytes",
	"bytes_saved",
	"compute_time_ms",
	"created_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type PostgresUsageStore struct {
	db *sql.DB
}

func NewPostgresUsageStore(ctx context.Context, dsn string) (*PostgresUsageStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresUsageStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresUsageStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, usageSchemaSQL); err != nil {
		return fmt.Errorf("ensure usage_logs schema: %w", err)
	}
	return nil
}

func (s *PostgresUsageStore) Close() error {
	return s.db.Close()
}

func (s *PostgresUsageStore) CreateUsageLog(ctx context.Context, usage domain.UsageLog) error {
	query, args, err := insertUsageQuery(usage)
	if err != nil {
		return fmt.Errorf("build insert usage query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

func (s *PostgresUsageStore) ListUsageLogs(ctx context.Context, limit int) ([]domain.UsageLog, error) {
	query, args, err := listUsageQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("build list usage query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.UsageLog
	for rows.Next() {
		usage, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage logs: %w", err)
	}
	return logs, nil
}

func (s *PostgresUsageStore) GetUsageLog(ctx context.Context, runID string) (domain.UsageLog, error) {
	query, args, err := psql.Select(usageColumns...).
		From("usage_logs").
		Where(squirrel.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return domain.UsageLog{}, fmt.Errorf("build get usage query: %w", err)
	}

	usage, err := scanUsage(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UsageLog{}, ErrNotFound
	}
	return usage, err
}

func insertUsageQuery(usage domain.UsageLog) (string, []any, error) {
	return psql.Insert("usage_logs").
		Columns(usageColumns...).
		Values(
			usage.RunID,
			usage.Files,
			string(usage.Format),
			usage.PixelsProcessed,
			usage.SourceBytes,
			usage.OutputBytes,
			usage.BytesSaved,
			usage.ComputeTimeMS,
			usage.CreatedAt,
		).
		ToSql()
}

func listUsageQuery(limit int) (string, []any, error) {
	return psql.Select(usageColumns...).
		From("usage_logs").
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(limit))).
		ToSql()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUsage(row rowScanner) (domain.UsageLog, error) {
	var (
		usage  domain.UsageLog
		format string
	)
	if err := row.Scan(
		&usage.RunID,
		&usage.Files,
		&format,
		&usage.PixelsProcessed,
		&usage.SourceBytes,
		&usage.OutputBytes,
		&usage.BytesSaved,
		&usage.ComputeTimeMS,
		&usage.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UsageLog{}, err
		}
		return domain.UsageLog{}, fmt.Errorf("scan usage log: %w", err)
	}
	usage.Format = domain.Format(format)
	return usage, nil
}
