package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/photocompress/internal/domain"
)

// Backend serializes pixels into a compressed format. Supports is the
// capability check; it must be cheap and deterministic.
type Backend interface {
	Name() string
	Supports(format domain.Format) bool
	Encode(img image.Image, format domain.Format, quality int) ([]byte, error)
}

type Reencoder struct {
	backend Backend
	format  domain.Format
}

// NewReencoder asks backend once for the preferred format and falls back to
// JPEG when it cannot be produced.
func NewReencoder(backend Backend, preferred domain.Format) *Reencoder {
	format := domain.FormatJPEG
	if preferred != "" && backend.Supports(preferred) {
		format = preferred
	}
	return &Reencoder{backend: backend, format: format}
}

func (r *Reencoder) Format() domain.Format {
	return r.format
}

func (r *Reencoder) Backend() string {
	return r.backend.Name()
}

// Encode resamples surface to targetWidth x targetHeight with a Lanczos filter
// and serializes it at quality (0,1] in the resolved format.
func (r *Reencoder) Encode(ctx context.Context, surface Surface, targetWidth, targetHeight int, quality float64) ([]byte, error) {
	fail := func(err error) ([]byte, error) {
		return nil, &domain.EncodeError{Name: surface.Name, Format: r.format, Err: err}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if surface.Image == nil {
		return fail(errors.New("surface has no image"))
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return fail(errors.New("target dimensions must be positive"))
	}

	img := surface.Image
	if targetWidth != surface.Width || targetHeight != surface.Height {
		img = imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos)
	}
	if r.format == domain.FormatJPEG {
		img = flatten(img)
	}

	opts := domain.EncodeOptions{Quality: quality, MaxWidth: targetWidth}
	data, err := r.backend.Encode(img, r.format, opts.QualityPercent())
	if err != nil {
		return fail(err)
	}
	if len(data) == 0 {
		return fail(errors.New("encoder produced no data"))
	}
	return data, nil
}

// flatten composites img onto white. JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
