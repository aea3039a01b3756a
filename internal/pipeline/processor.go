package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/dunamismax/photocompress/internal/cache"
	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Progress is reported after each item of a batch completes.
type Progress struct {
	Index    int
	Total    int
	Name     string
	CacheHit bool
}

type Config struct {
	// Backend defaults to NewBackend().
	Backend Backend
	// Preferred defaults to WebP.
	Preferred domain.Format
	Cache     cache.Cache
	Logger    zerolog.Logger
	Progress  func(Progress)
}

type Processor struct {
	reencoder *Reencoder
	cache     cache.Cache
	logger    zerolog.Logger
	tracer    trace.Tracer
	progress  func(Progress)
}

func NewProcessor(cfg Config) *Processor {
	backend := cfg.Backend
	if backend == nil {
		backend = NewBackend()
	}
	preferred := cfg.Preferred
	if preferred == "" {
		preferred = domain.FormatWebP
	}

	return &Processor{
		reencoder: NewReencoder(backend, preferred),
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		tracer:    otel.Tracer("photocompress/pipeline"),
		progress:  cfg.Progress,
	}
}

// Format is the output format resolved for every run of this Processor.
func (p *Processor) Format() domain.Format {
	return p.reencoder.Format()
}

func (p *Processor) Backend() string {
	return p.reencoder.Backend()
}

// Compress runs the batch over the session's sources and returns the session
// with its outputs filled in. A session without sources fails with
// *domain.EmptySelectionError before any decoding starts.
func (p *Processor) Compress(ctx context.Context, s domain.Session) (domain.Session, error) {
	if len(s.Sources) == 0 {
		return s, &domain.EmptySelectionError{Skipped: len(s.Skipped)}
	}

	outputs, err := p.RunBatch(ctx, s.Sources, s.Options)
	if err != nil {
		return s, err
	}

	s.Format = p.Format()
	s.Outputs = outputs
	s.Archive = nil
	return s, nil
}

// RunBatch transcodes sources one at a time in input order. The first failure
// aborts the batch and no outputs are returned.
func (p *Processor) RunBatch(ctx context.Context, sources []domain.SourceImage, opts domain.EncodeOptions) ([]domain.TranscodedOutput, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	format := p.Format()
	outputs := make([]domain.TranscodedOutput, 0, len(sources))
	seen := make(map[string]int, len(sources))

	for i, src := range sources {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, hit, err := p.transcode(ctx, src, opts)
		if err != nil {
			return nil, fmt.Errorf("item %d/%d %s: %w", i+1, len(sources), src.Name, err)
		}
		out.Name = uniqueName(OutputName(src.Name, format), seen)
		outputs = append(outputs, out)

		p.logger.Debug().
			Str("source", src.Name).
			Str("output", out.Name).
			Int("width", out.Width).
			Int("height", out.Height).
			Int("bytes", len(out.Data)).
			Bool("cache_hit", hit).
			Msg("transcoded")

		if p.progress != nil {
			p.progress(Progress{Index: i + 1, Total: len(sources), Name: out.Name, CacheHit: hit})
		}
	}

	return outputs, nil
}

func (p *Processor) transcode(ctx context.Context, src domain.SourceImage, opts domain.EncodeOptions) (domain.TranscodedOutput, bool, error) {
	format := p.Format()

	ctx, span := p.tracer.Start(ctx, "pipeline.transcode")
	span.SetAttributes(
		attribute.String("source.name", src.Name),
		attribute.String("source.mime_type", src.MIMEType),
		attribute.Int("source.bytes", len(src.Data)),
		attribute.String("output.format", string(format)),
	)
	defer span.End()

	key := ""
	if p.cache != nil {
		key = cache.Key(src.Data, string(format), opts.QualityPercent(), opts.MaxWidth)
		if out, ok := p.lookup(ctx, key, src, format); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return out, true, nil
		}
	}

	surface, err := decodeNamed(src.Name, src.Data, src.MIMEType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return domain.TranscodedOutput{}, false, err
	}

	width, height := Plan(surface.Width, surface.Height, opts.MaxWidth)
	data, err := p.reencoder.Encode(ctx, surface, width, height, opts.Quality)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return domain.TranscodedOutput{}, false, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, data); err != nil {
			p.logger.Warn().Err(err).Str("source", src.Name).Msg("cache write failed")
		}
	}

	span.SetAttributes(
		attribute.Int("output.width", width),
		attribute.Int("output.height", height),
		attribute.Int("output.bytes", len(data)),
	)
	return domain.TranscodedOutput{
		Data:        data,
		MIMEType:    format.MIMEType(),
		Width:       width,
		Height:      height,
		SourceBytes: len(src.Data),
	}, false, nil
}

func (p *Processor) lookup(ctx context.Context, key string, src domain.SourceImage, format domain.Format) (domain.TranscodedOutput, bool) {
	data, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn().Err(err).Str("source", src.Name).Msg("cache read failed")
		}
		return domain.TranscodedOutput{}, false
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return domain.TranscodedOutput{}, false
	}

	return domain.TranscodedOutput{
		Data:        data,
		MIMEType:    format.MIMEType(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		SourceBytes: len(src.Data),
		Cached:      true,
	}, true
}
