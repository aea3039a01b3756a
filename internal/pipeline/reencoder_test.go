package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReencoderResolvesFormatOnce(t *testing.T) {
	modern := &fakeBackend{formats: map[domain.Format]bool{domain.FormatWebP: true, domain.FormatJPEG: true}}
	assert.Equal(t, domain.FormatWebP, NewReencoder(modern, domain.FormatWebP).Format())

	baseline := &fakeBackend{formats: map[domain.Format]bool{domain.FormatJPEG: true}}
	assert.Equal(t, domain.FormatJPEG, NewReencoder(baseline, domain.FormatWebP).Format())

	assert.Equal(t, domain.FormatJPEG, NewReencoder(stdlibBackend{}, domain.FormatWebP).Format())
}

func TestReencoderPassesQualityPercent(t *testing.T) {
	backend := &fakeBackend{
		formats: map[domain.Format]bool{domain.FormatWebP: true},
		output:  []byte("RIFF....WEBP"),
	}
	r := NewReencoder(backend, domain.FormatWebP)

	surface, err := Decode(buildTestPNG(t, 20, 10), "image/png")
	require.NoError(t, err)

	data, err := r.Encode(context.Background(), surface, 10, 5, 0.8)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WEBP"), data)
	assert.Equal(t, 80, backend.quality)
	assert.Equal(t, 1, backend.calls)
}

func TestReencoderEmptyOutputIsEncodeError(t *testing.T) {
	backend := &fakeBackend{formats: map[domain.Format]bool{domain.FormatJPEG: true}}
	r := NewReencoder(backend, domain.FormatJPEG)

	surface, err := decodeNamed("blank.png", buildTestPNG(t, 4, 4), "image/png")
	require.NoError(t, err)

	_, err = r.Encode(context.Background(), surface, 4, 4, 0.5)
	var encodeErr *domain.EncodeError
	require.True(t, errors.As(err, &encodeErr), "expected EncodeError, got %v", err)
	assert.Equal(t, "blank.png", encodeErr.Name)
	assert.Equal(t, domain.FormatJPEG, encodeErr.Format)
}

func TestReencoderBackendFailureIsEncodeError(t *testing.T) {
	backend := &fakeBackend{
		formats: map[domain.Format]bool{domain.FormatJPEG: true},
		err:     errors.New("codec exploded"),
	}
	r := NewReencoder(backend, domain.FormatJPEG)

	surface, err := Decode(buildTestPNG(t, 4, 4), "image/png")
	require.NoError(t, err)

	_, err = r.Encode(context.Background(), surface, 4, 4, 0.5)
	var encodeErr *domain.EncodeError
	require.True(t, errors.As(err, &encodeErr))
	assert.ErrorContains(t, err, "codec exploded")
}

func TestReencoderResamplesToTarget(t *testing.T) {
	r := NewReencoder(stdlibBackend{}, domain.FormatJPEG)

	surface, err := Decode(buildTestPNG(t, 300, 200), "image/png")
	require.NoError(t, err)

	data, err := r.Encode(context.Background(), surface, 150, 100, 0.9)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 150, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestReencoderFlattensTransparencyForJPEG(t *testing.T) {
	r := NewReencoder(stdlibBackend{}, domain.FormatJPEG)

	surface, err := Decode(buildTransparentPNG(t, 8, 8), "image/png")
	require.NoError(t, err)

	data, err := r.Encode(context.Background(), surface, 8, 8, 1)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	red, green, blue, _ := img.At(4, 4).RGBA()
	assert.Greater(t, red>>8, uint32(240))
	assert.Greater(t, green>>8, uint32(240))
	assert.Greater(t, blue>>8, uint32(240))
}
