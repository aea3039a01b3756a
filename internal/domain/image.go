package domain

import "strings"

const DefaultArchiveName = "compressed_images.zip"

type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts the spellings users type on the command line.
func ParseFormat(in string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "webp":
		return FormatWebP, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	default:
		return "", false
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatWebP:
		return ".webp"
	case FormatJPEG:
		return ".jpg"
	default:
		return ""
	}
}

func (f Format) MIMEType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatJPEG:
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

type SourceImage struct {
	Name     string
	Data     []byte
	MIMEType string
}

// IsImage reports whether the declared type is an image type at all.
func (s SourceImage) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.MIMEType)), "image/")
}

type TranscodedOutput struct {
	Name        string
	Data        []byte
	MIMEType    string
	Width       int
	Height      int
	SourceBytes int
	// Cached is set when the bytes came from the transcode cache.
	Cached bool
}

type Archive struct {
	Name    string
	Data    []byte
	Entries int
}
