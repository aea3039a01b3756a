package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/dunamismax/photocompress/internal/cache"
	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(cfg Config) *Processor {
	if cfg.Backend == nil {
		cfg.Backend = stdlibBackend{}
	}
	cfg.Logger = zerolog.Nop()
	return NewProcessor(cfg)
}

func TestRunBatchDownscalesAndKeepsQuality(t *testing.T) {
	p := newTestProcessor(Config{})
	opts := domain.EncodeOptionsFromPercent(80, 800)

	outputs, err := p.RunBatch(context.Background(), []domain.SourceImage{pngSource(t, "large.png", 1600, 1200)}, opts)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	out := outputs[0]
	assert.Equal(t, "large.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.MIMEType)
	assert.Equal(t, 800, out.Width)
	assert.Equal(t, 600, out.Height)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)

	quality, ok := EstimateJPEGQuality(out.Data)
	require.True(t, ok)
	assert.InDelta(t, 80, quality, 1)
}

func TestRunBatchPreservesInputOrder(t *testing.T) {
	p := newTestProcessor(Config{})
	opts := domain.EncodeOptionsFromPercent(70, 50)

	for size := 0; size <= 4; size++ {
		sources := make([]domain.SourceImage, 0, size)
		names := []string{"e.png", "b.jpg", "d.PNG", "a.png"}
		for i := 0; i < size; i++ {
			sources = append(sources, pngSource(t, names[i], 20+i*30, 10+i*5))
		}

		outputs, err := p.RunBatch(context.Background(), sources, opts)
		require.NoError(t, err)
		require.Len(t, outputs, size)

		for i, out := range outputs {
			assert.Equal(t, OutputName(sources[i].Name, domain.FormatJPEG), out.Name)
			assert.LessOrEqual(t, out.Width, opts.MaxWidth)
			assert.Equal(t, len(sources[i].Data), out.SourceBytes)
		}
	}
}

func TestRunBatchIsAllOrNothing(t *testing.T) {
	p := newTestProcessor(Config{})

	sources := []domain.SourceImage{
		pngSource(t, "a.png", 40, 40),
		{Name: "b.png", Data: []byte("corrupt"), MIMEType: "image/png"},
		pngSource(t, "c.png", 40, 40),
	}

	outputs, err := p.RunBatch(context.Background(), sources, domain.EncodeOptionsFromPercent(80, 100))
	require.Error(t, err)
	assert.Nil(t, outputs)

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "b.png", decodeErr.Name)
	assert.ErrorContains(t, err, "item 2/3")
}

func TestRunBatchEncodeFailureAborts(t *testing.T) {
	backend := &fakeBackend{formats: map[domain.Format]bool{domain.FormatJPEG: true}}
	p := newTestProcessor(Config{Backend: backend})

	outputs, err := p.RunBatch(context.Background(), []domain.SourceImage{
		pngSource(t, "a.png", 10, 10),
		pngSource(t, "b.png", 10, 10),
	}, domain.EncodeOptionsFromPercent(80, 100))

	var encodeErr *domain.EncodeError
	require.True(t, errors.As(err, &encodeErr))
	assert.Nil(t, outputs)
	assert.Equal(t, 1, backend.calls, "batch must stop at the first failure")
}

func TestRunBatchRejectsInvalidOptions(t *testing.T) {
	p := newTestProcessor(Config{})
	_, err := p.RunBatch(context.Background(), nil, domain.EncodeOptions{Quality: 0, MaxWidth: 10})
	require.Error(t, err)
}

func TestRunBatchDeduplicatesNames(t *testing.T) {
	p := newTestProcessor(Config{})

	outputs, err := p.RunBatch(context.Background(), []domain.SourceImage{
		pngSource(t, "a.png", 10, 10),
		pngSource(t, "a.jpg", 10, 10),
		pngSource(t, "a.jpeg", 10, 10),
	}, domain.EncodeOptionsFromPercent(80, 100))
	require.NoError(t, err)

	names := []string{outputs[0].Name, outputs[1].Name, outputs[2].Name}
	assert.Equal(t, []string{"a.jpg", "a-2.jpg", "a-3.jpg"}, names)
}

func TestRunBatchDeduplicatesNamesAcrossCase(t *testing.T) {
	p := newTestProcessor(Config{})

	outputs, err := p.RunBatch(context.Background(), []domain.SourceImage{
		pngSource(t, "Photo.png", 10, 10),
		pngSource(t, "photo.PNG", 10, 10),
	}, domain.EncodeOptionsFromPercent(80, 100))
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, "Photo.jpg", outputs[0].Name)
	assert.Equal(t, "photo-2.jpg", outputs[1].Name)
}

func TestRunBatchStopsWhenContextCancelled(t *testing.T) {
	p := newTestProcessor(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RunBatch(ctx, []domain.SourceImage{pngSource(t, "a.png", 10, 10)}, domain.EncodeOptionsFromPercent(80, 100))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatchUsesCache(t *testing.T) {
	var hits []bool
	p := newTestProcessor(Config{
		Cache: cache.NewMemoryCache(0),
		Progress: func(pr Progress) {
			hits = append(hits, pr.CacheHit)
		},
	})
	sources := []domain.SourceImage{pngSource(t, "a.png", 120, 60)}
	opts := domain.EncodeOptionsFromPercent(80, 60)

	first, err := p.RunBatch(context.Background(), sources, opts)
	require.NoError(t, err)
	second, err := p.RunBatch(context.Background(), sources, opts)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, hits)
	assert.False(t, first[0].Cached)
	assert.True(t, second[0].Cached)
	assert.Equal(t, first[0].Data, second[0].Data)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.Equal(t, 60, second[0].Width)
	assert.Equal(t, 30, second[0].Height)
}

func TestCompressEmptySelection(t *testing.T) {
	backend := &fakeBackend{formats: map[domain.Format]bool{domain.FormatJPEG: true}, output: []byte{1}}
	p := newTestProcessor(Config{Backend: backend})

	s := domain.NewSession("run-empty", domain.EncodeOptionsFromPercent(80, 100)).
		Select(domain.SourceImage{Name: "readme.txt", MIMEType: "text/plain"})

	_, err := p.Compress(context.Background(), s)
	var emptyErr *domain.EmptySelectionError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, 1, emptyErr.Skipped)
	assert.Zero(t, backend.calls)
}

func TestCompressFillsSession(t *testing.T) {
	p := newTestProcessor(Config{})

	s := domain.NewSession("run-1", domain.EncodeOptionsFromPercent(80, 100)).
		Select(pngSource(t, "a.png", 200, 100), pngSource(t, "b.png", 50, 50))

	s, err := p.Compress(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, s.Format)
	require.Len(t, s.Outputs, 2)
	assert.Equal(t, 100, s.Outputs[0].Width)
	assert.Equal(t, 50, s.Outputs[0].Height)
	assert.Equal(t, 50, s.Outputs[1].Width)
	assert.Nil(t, s.Archive)
}
