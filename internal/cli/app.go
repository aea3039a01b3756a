package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dunamismax/photocompress/internal/cache"
	"github.com/dunamismax/photocompress/internal/config"
	"github.com/dunamismax/photocompress/internal/pipeline"
	"github.com/dunamismax/photocompress/internal/storage"
	"github.com/dunamismax/photocompress/internal/store"
	"github.com/dunamismax/photocompress/internal/telemetry"
	"github.com/dunamismax/photocompress/internal/webhook"
	"github.com/rs/zerolog"
)

// app holds the collaborators built from config for one command invocation.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	cache    cache.Cache
	usage    store.UsageStore
	emitters []pipeline.Emitter
	webhook  *webhook.Client
	metrics  *telemetry.Metrics
	closers  []func(context.Context) error
}

type appOptions struct {
	upload   bool
	logOut   io.Writer
	useCache bool
}

func newApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	a := &app{
		cfg: cfg,
		logger: telemetry.NewLogger(telemetry.LogConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: opts.logOut,
		}),
		metrics: telemetry.NewMetrics(),
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "photocompress",
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	if opts.useCache {
		if err := a.setupCache(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	if err := a.setupUsageStore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.emitters = []pipeline.Emitter{pipeline.LocalFileEmitter{OutputDir: cfg.Compress.OutputDir}}
	if opts.upload || cfg.Storage.Enabled {
		emitter, err := a.objectStoreEmitter(ctx)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.emitters = append(a.emitters, emitter)
	}

	if cfg.Webhook.URL != "" {
		a.webhook = webhook.NewClient(webhook.Config{
			SigningSecret: cfg.Webhook.Secret,
			Timeout:       cfg.Webhook.Timeout,
			MaxAttempts:   cfg.Webhook.MaxAttempts,
		})
	}

	return a, nil
}

func (a *app) setupCache(ctx context.Context) error {
	switch a.cfg.Cache.Driver {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     a.cfg.Cache.Redis.Addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
			TTL:      a.cfg.Cache.TTL,
		})
		if err != nil {
			// Runs proceed uncached.
			a.logger.Warn().Err(err).Str("addr", a.cfg.Cache.Redis.Addr).Msg("redis cache unavailable")
			return nil
		}
		a.cache = c
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	case "memory":
		a.cache = cache.NewMemoryCache(a.cfg.Cache.MaxEntries)
	}
	return nil
}

// setupUsageStore opens the Postgres ledger. Without a DSN no usage is
// recorded; the runner skips the step when the store is nil.
func (a *app) setupUsageStore(ctx context.Context) error {
	if a.cfg.Database.DSN == "" {
		return nil
	}

	pg, err := store.NewPostgresUsageStore(ctx, a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open usage store: %w", err)
	}
	a.usage = pg
	a.closers = append(a.closers, func(context.Context) error { return pg.Close() })
	return nil
}

func (a *app) objectStoreEmitter(ctx context.Context) (pipeline.Emitter, error) {
	client, err := storage.NewClient(storage.Config{
		Endpoint:  a.cfg.Storage.Endpoint,
		AccessKey: a.cfg.Storage.AccessKey,
		SecretKey: a.cfg.Storage.SecretKey,
		Bucket:    a.cfg.Storage.Bucket,
		Region:    a.cfg.Storage.Region,
		UseSSL:    a.cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	return pipeline.ObjectStoreEmitter{
		Storage:      client,
		OutputPrefix: a.cfg.Storage.Prefix,
		PresignTTL:   a.cfg.Storage.PresignTTL,
	}, nil
}

// Close flushes metrics and releases every opened client.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.metrics != nil {
		errs = append(errs, a.metrics.WriteTextfile(a.cfg.Metrics.Textfile))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
