package domain

import "fmt"

// DecodeError means the input bytes could not be turned into pixels.
type DecodeError struct {
	Name     string
	MIMEType string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.MIMEType != "" {
		return fmt.Sprintf("decode %s (%s): %v", e.Name, e.MIMEType, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError means serialization failed or produced no data.
type EncodeError struct {
	Name   string
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s as %s: %v", e.Name, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

type UnsupportedInputError struct {
	Name     string
	MIMEType string
}

func (e UnsupportedInputError) Error() string {
	return fmt.Sprintf("%s is not an image (type %q)", e.Name, e.MIMEType)
}

type EmptySelectionError struct {
	Skipped int
}

func (e *EmptySelectionError) Error() string {
	if e.Skipped > 0 {
		return fmt.Sprintf("no image files selected (%d non-image files skipped)", e.Skipped)
	}
	return "no image files selected"
}
