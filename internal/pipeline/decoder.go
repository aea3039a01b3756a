package pipeline

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/photocompress/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Surface is a decoded image owned by a single transcode call.
type Surface struct {
	Name   string
	Image  image.Image
	Width  int
	Height int
	Format string
}

// Decode turns raw file bytes into a Surface. EXIF orientation is applied, so
// Width and Height are the dimensions the image is displayed at. The declared
// mimeType is only carried into errors; the bytes decide the codec.
func Decode(data []byte, mimeType string) (Surface, error) {
	return decodeNamed("", data, mimeType)
}

func decodeNamed(name string, data []byte, mimeType string) (Surface, error) {
	fail := func(err error) (Surface, error) {
		return Surface{}, &domain.DecodeError{Name: name, MIMEType: mimeType, Err: err}
	}

	if len(data) == 0 {
		return fail(errors.New("empty input"))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fail(err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fail(err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fail(errors.New("image has no pixels"))
	}

	return Surface{
		Name:   name,
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}
