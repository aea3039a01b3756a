//go:build govips && cgo

package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/photocompress/internal/domain"
)

type govipsBackend struct{}

func (govipsBackend) Name() string {
	return "govips"
}

func (govipsBackend) Supports(format domain.Format) bool {
	switch format {
	case domain.FormatWebP, domain.FormatJPEG:
		return true
	default:
		return false
	}
}

func (govipsBackend) Encode(img image.Image, format domain.Format, quality int) ([]byte, error) {
	// libvips takes encoded buffers, so hand it a fast lossless intermediate.
	var staged bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&staged, img); err != nil {
		return nil, fmt.Errorf("stage image for libvips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(staged.Bytes())
	if err != nil {
		return nil, fmt.Errorf("load staged image: %w", err)
	}
	defer ref.Close()

	switch format {
	case domain.FormatWebP:
		params := vips.NewWebpExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := ref.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	case domain.FormatJPEG:
		params := vips.NewJpegExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := ref.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
