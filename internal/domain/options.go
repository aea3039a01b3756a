package domain

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultQualityPercent = 80
	DefaultMaxWidth       = 1280
)

type EncodeOptions struct {
	Quality  float64
	MaxWidth int
}

// EncodeOptionsFromPercent converts the 0-100 quality setting used by callers
// into the (0,1] factor the encoder works with.
func EncodeOptionsFromPercent(percent float64, maxWidth int) EncodeOptions {
	return EncodeOptions{
		Quality:  percent / 100,
		MaxWidth: maxWidth,
	}
}

func (o EncodeOptions) Validate() error {
	if math.IsNaN(o.Quality) || o.Quality <= 0 || o.Quality > 1 {
		return fmt.Errorf("quality must be in (0,1], got %v", o.Quality)
	}
	if o.MaxWidth <= 0 {
		return errors.New("max_width must be a positive integer")
	}
	return nil
}

// QualityPercent maps the quality factor onto the 1-100 scale codecs expect.
func (o EncodeOptions) QualityPercent() int {
	q := int(math.Round(o.Quality * 100))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
