package pipeline

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dunamismax/photocompress/internal/domain"
)

var sourceExtension = regexp.MustCompile(`(?i)\.(png|jpe?g)$`)

// OutputName strips a trailing .png/.jpg/.jpeg (any case) from name and
// appends the extension of format. Names that are nothing but an extension
// are kept whole.
func OutputName(name string, format domain.Format) string {
	base := sourceExtension.ReplaceAllString(name, "")
	if base == "" {
		base = name
	}
	return base + format.Extension()
}

// uniqueName returns name, or name with a -N suffix before its extension when
// an earlier entry in the same batch already took it. Names are compared
// case-insensitively.
func uniqueName(name string, seen map[string]int) string {
	key := strings.ToLower(name)
	if seen[key] == 0 {
		seen[key] = 1
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := seen[key] + 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		candidateKey := strings.ToLower(candidate)
		if seen[candidateKey] == 0 {
			seen[key] = n
			seen[candidateKey] = 1
			return candidate
		}
	}
}
