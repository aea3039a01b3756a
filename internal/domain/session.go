package domain

// Session carries the state of one compression run from selection through
// packaging. Stages take a Session and return an updated copy.
type Session struct {
	ID      string
	Sources []SourceImage
	Skipped []UnsupportedInputError
	Options EncodeOptions
	Format  Format
	Outputs []TranscodedOutput
	Archive *Archive
}

func NewSession(id string, opts EncodeOptions) Session {
	return Session{ID: id, Options: opts}
}

// Select appends every image among files to the session. Anything that is not
// an image type is recorded as skipped rather than failing the selection.
func (s Session) Select(files ...SourceImage) Session {
	sources := make([]SourceImage, 0, len(s.Sources)+len(files))
	sources = append(sources, s.Sources...)
	skipped := append([]UnsupportedInputError(nil), s.Skipped...)

	for _, f := range files {
		if !f.IsImage() {
			skipped = append(skipped, UnsupportedInputError{Name: f.Name, MIMEType: f.MIMEType})
			continue
		}
		sources = append(sources, f)
	}

	s.Sources = sources
	s.Skipped = skipped
	return s
}

func (s Session) SourceBytes() int {
	total := 0
	for _, src := range s.Sources {
		total += len(src.Data)
	}
	return total
}

func (s Session) OutputBytes() int {
	total := 0
	for _, out := range s.Outputs {
		total += len(out.Data)
	}
	return total
}
