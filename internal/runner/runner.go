// Package runner drives one compression run end to end: transcode, archive,
// deliver, and record the result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/photocompress/internal/archive"
	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/dunamismax/photocompress/internal/pipeline"
	"github.com/dunamismax/photocompress/internal/store"
	"github.com/dunamismax/photocompress/internal/telemetry"
	"github.com/dunamismax/photocompress/internal/webhook"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusEmpty     = "empty"
)

type webhookSender interface {
	Send(ctx context.Context, endpoint string, event webhook.Event) error
}

type Config struct {
	Processor   *pipeline.Processor
	Emitters    []pipeline.Emitter
	ArchiveName string
	UsageStore  store.UsageStore
	Metrics     *telemetry.Metrics
	Webhook     webhookSender
	WebhookURL  string
	Logger      zerolog.Logger
}

type Runner struct {
	processor   *pipeline.Processor
	emitters    []pipeline.Emitter
	archiveName string
	usageStore  store.UsageStore
	metrics     *telemetry.Metrics
	webhook     webhookSender
	webhookURL  string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// Report describes a finished run.
type Report struct {
	RunID           string
	Format          domain.Format
	Backend         string
	Files           int
	Skipped         []domain.UnsupportedInputError
	CacheHits       int
	SourceBytes     int64
	OutputBytes     int64
	BytesSaved      int64
	PixelsProcessed int64
	ArchiveName     string
	ArchiveBytes    int
	Deliveries      []pipeline.Delivery
	Duration        time.Duration
}

func New(cfg Config) (*Runner, error) {
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}

	archiveName := cfg.ArchiveName
	if archiveName == "" {
		archiveName = domain.DefaultArchiveName
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	return &Runner{
		processor:   cfg.Processor,
		emitters:    cfg.Emitters,
		archiveName: archiveName,
		usageStore:  cfg.UsageStore,
		metrics:     metrics,
		webhook:     cfg.Webhook,
		webhookURL:  cfg.WebhookURL,
		logger:      cfg.Logger,
		tracer:      otel.Tracer("photocompress/runner"),
		now:         time.Now,
	}, nil
}

// Run compresses the session's sources, packs them into one archive and hands
// the archive to every emitter. Any failure aborts the whole run; no archive
// is delivered and a single error is returned.
func (r *Runner) Run(ctx context.Context, s domain.Session) (Report, error) {
	startedAt := r.now()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	report := Report{
		RunID:       s.ID,
		Format:      r.processor.Format(),
		Backend:     r.processor.Backend(),
		Skipped:     s.Skipped,
		ArchiveName: r.archiveName,
	}
	logger := r.logger.With().Str("run_id", s.ID).Logger()

	ctx, span := r.tracer.Start(ctx, "runner.run")
	span.SetAttributes(
		attribute.String("run.id", s.ID),
		attribute.Int("run.files", len(s.Sources)),
		attribute.Int("run.skipped", len(s.Skipped)),
		attribute.String("run.format", string(report.Format)),
	)
	defer span.End()

	if len(s.Sources) == 0 {
		err := &domain.EmptySelectionError{Skipped: len(s.Skipped)}
		report.Duration = r.now().Sub(startedAt)
		r.observe(report, statusEmpty)
		span.SetStatus(codes.Error, "empty selection")
		logger.Warn().Int("skipped", len(s.Skipped)).Msg("nothing to compress")
		return report, err
	}

	logger.Info().
		Int("files", len(s.Sources)).
		Int("skipped", len(s.Skipped)).
		Str("format", string(report.Format)).
		Str("backend", report.Backend).
		Msg("run started")

	s, err := r.execute(ctx, logger, s, &report)
	report.Duration = r.now().Sub(startedAt)
	if err != nil {
		r.observe(report, statusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		logger.Error().Err(err).Dur("duration", report.Duration).Msg("run failed")
		r.notify(ctx, logger, webhook.BatchFailed{
			RunID:    s.ID,
			Files:    len(s.Sources),
			Format:   string(report.Format),
			Error:    err.Error(),
			FailedAt: r.now().UTC(),
		})
		return report, err
	}

	summarize(&report, s)
	r.recordUsage(ctx, logger, report, startedAt)
	r.observe(report, statusSucceeded)

	span.SetAttributes(
		attribute.Int64("run.source_bytes", report.SourceBytes),
		attribute.Int64("run.output_bytes", report.OutputBytes),
		attribute.Int("run.archive_bytes", report.ArchiveBytes),
	)
	span.SetStatus(codes.Ok, "compressed")

	logger.Info().
		Int("files", report.Files).
		Int64("source_bytes", report.SourceBytes).
		Int64("output_bytes", report.OutputBytes).
		Int64("bytes_saved", report.BytesSaved).
		Dur("duration", report.Duration).
		Msg("run completed")

	r.notify(ctx, logger, completedEvent(report, r.now().UTC()))
	return report, nil
}

func (r *Runner) execute(ctx context.Context, logger zerolog.Logger, s domain.Session, report *Report) (domain.Session, error) {
	s, err := r.processor.Compress(ctx, s)
	if err != nil {
		return s, fmt.Errorf("compress: %w", err)
	}

	packed, err := archive.Pack(ctx, r.archiveName, s.Outputs)
	if err != nil {
		return s, fmt.Errorf("pack archive: %w", err)
	}
	s.Archive = &packed
	report.ArchiveName = packed.Name
	report.ArchiveBytes = len(packed.Data)

	var done []completedDelivery
	for _, emitter := range r.emitters {
		delivery, err := emitter.Emit(ctx, s.ID, packed)
		if err != nil {
			withdraw(ctx, logger, done)
			report.Deliveries = nil
			return s, fmt.Errorf("deliver archive: %w", err)
		}
		done = append(done, completedDelivery{emitter: emitter, delivery: delivery})
		report.Deliveries = append(report.Deliveries, delivery)
	}
	return s, nil
}

type completedDelivery struct {
	emitter  pipeline.Emitter
	delivery pipeline.Delivery
}

// withdraw undoes completed deliveries, newest first. A failed run leaves no
// archive behind unless an emitter cannot discard.
func withdraw(ctx context.Context, logger zerolog.Logger, done []completedDelivery) {
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i].delivery
		discarder, ok := done[i].emitter.(pipeline.Discarder)
		if !ok {
			logger.Warn().Str("emitter", d.Emitter).Str("location", d.Location).Msg("delivery cannot be withdrawn")
			continue
		}
		if err := discarder.Discard(ctx, d); err != nil {
			logger.Warn().Err(err).Str("emitter", d.Emitter).Str("location", d.Location).Msg("withdraw delivery failed")
		}
	}
}

func summarize(report *Report, s domain.Session) {
	report.Files = len(s.Outputs)
	report.SourceBytes = int64(s.SourceBytes())
	report.OutputBytes = int64(s.OutputBytes())
	report.BytesSaved = max(0, report.SourceBytes-report.OutputBytes)
	for _, out := range s.Outputs {
		report.PixelsProcessed += int64(out.Width) * int64(out.Height)
		if out.Cached {
			report.CacheHits++
		}
	}
}

func (r *Runner) recordUsage(ctx context.Context, logger zerolog.Logger, report Report, startedAt time.Time) {
	if r.usageStore == nil {
		return
	}

	usage := domain.UsageLog{
		RunID:           report.RunID,
		Files:           report.Files,
		Format:          report.Format,
		PixelsProcessed: report.PixelsProcessed,
		SourceBytes:     report.SourceBytes,
		OutputBytes:     report.OutputBytes,
		BytesSaved:      report.BytesSaved,
		ComputeTimeMS:   max(1, report.Duration.Milliseconds()),
		CreatedAt:       startedAt.UTC(),
	}
	if err := r.usageStore.CreateUsageLog(ctx, usage); err != nil {
		logger.Warn().Err(err).Msg("usage log write failed")
	}
}

func (r *Runner) observe(report Report, status string) {
	r.metrics.ObserveRun(telemetry.RunStats{
		Format:          string(report.Format),
		Status:          status,
		Duration:        report.Duration,
		Files:           report.Files,
		Skipped:         len(report.Skipped),
		CacheHits:       report.CacheHits,
		SourceBytes:     report.SourceBytes,
		OutputBytes:     report.OutputBytes,
		PixelsProcessed: report.PixelsProcessed,
		BytesSaved:      report.BytesSaved,
	})
}

// notify delivers a webhook. Delivery failures are logged and never change
// the outcome of the run.
func (r *Runner) notify(ctx context.Context, logger zerolog.Logger, event webhook.Event) {
	if r.webhook == nil || r.webhookURL == "" {
		return
	}
	if err := r.webhook.Send(ctx, r.webhookURL, event); err != nil {
		logger.Warn().Err(err).Str("event", event.Name()).Msg("webhook delivery failed")
	}
}

func completedEvent(report Report, at time.Time) webhook.BatchCompleted {
	locations := make([]webhook.ArchiveLocation, 0, len(report.Deliveries))
	for _, d := range report.Deliveries {
		locations = append(locations, webhook.ArchiveLocation{
			Emitter:  d.Emitter,
			Location: d.Location,
			URL:      d.URL,
			Bytes:    d.Bytes,
		})
	}
	return webhook.BatchCompleted{
		RunID:       report.RunID,
		Files:       report.Files,
		Skipped:     len(report.Skipped),
		Format:      string(report.Format),
		SourceBytes: report.SourceBytes,
		OutputBytes: report.OutputBytes,
		BytesSaved:  report.BytesSaved,
		Archive:     report.ArchiveName,
		Locations:   locations,
		CompletedAt: at,
	}
}
