package pipeline

import (
	"testing"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		in     string
		format domain.Format
		want   string
	}{
		{in: "photo.JPG", format: domain.FormatWebP, want: "photo.webp"},
		{in: "noext", format: domain.FormatWebP, want: "noext.webp"},
		{in: "a.b.png", format: domain.FormatWebP, want: "a.b.webp"},
		{in: "scan.jpeg", format: domain.FormatJPEG, want: "scan.jpg"},
		{in: "anim.gif", format: domain.FormatJPEG, want: "anim.gif.jpg"},
		{in: ".png", format: domain.FormatWebP, want: ".png.webp"},
		{in: "png", format: domain.FormatWebP, want: "png.webp"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.in, tt.format), "input %q", tt.in)
	}
}

func TestUniqueName(t *testing.T) {
	seen := map[string]int{}

	assert.Equal(t, "a.webp", uniqueName("a.webp", seen))
	assert.Equal(t, "a-2.webp", uniqueName("a.webp", seen))
	assert.Equal(t, "a-3.webp", uniqueName("a.webp", seen))
	assert.Equal(t, "a-2-2.webp", uniqueName("a-2.webp", seen))
	assert.Equal(t, "b.webp", uniqueName("b.webp", seen))
}

func TestUniqueNameIgnoresCase(t *testing.T) {
	seen := map[string]int{}

	assert.Equal(t, "A.jpg", uniqueName("A.jpg", seen))
	assert.Equal(t, "a-2.jpg", uniqueName("a.jpg", seen))
	assert.Equal(t, "A-3.JPG", uniqueName("A.JPG", seen))
}
