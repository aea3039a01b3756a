package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/dunamismax/photocompress/internal/domain"
)

type stdlibBackend struct{}

func (stdlibBackend) Name() string {
	return "stdlib"
}

func (stdlibBackend) Supports(format domain.Format) bool {
	return format == domain.FormatJPEG
}

func (stdlibBackend) Encode(img image.Image, format domain.Format, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case domain.FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = domain.DefaultQualityPercent
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case domain.FormatWebP:
		return nil, errors.New("webp export requires govips build tag")
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return buf.Bytes(), nil
}
