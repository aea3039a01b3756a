package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dunamismax/photocompress/internal/domain"
)

func buildTestPNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8((x * 255) / w)
			img.Pix[i+1] = uint8((y * 255) / h)
			img.Pix[i+2] = 140
			img.Pix[i+3] = 255
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func buildTransparentPNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0, G: 0, B: 0, A: 0})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode transparent png: %v", err)
	}
	return buf.Bytes()
}

func pngSource(t testing.TB, name string, w, h int) domain.SourceImage {
	t.Helper()
	return domain.SourceImage{Name: name, Data: buildTestPNG(t, w, h), MIMEType: "image/png"}
}

// fakeBackend records calls and returns fixed bytes.
type fakeBackend struct {
	formats map[domain.Format]bool
	output  []byte
	err     error
	calls   int
	quality int
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Supports(format domain.Format) bool {
	return b.formats[format]
}

func (b *fakeBackend) Encode(_ image.Image, _ domain.Format, quality int) ([]byte, error) {
	b.calls++
	b.quality = quality
	return b.output, b.err
}
