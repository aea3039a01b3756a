// Package source turns command-line paths into selected files.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

// Collect reads every file named by paths. Directories contribute their
// regular files in name order, without descending into subdirectories. The
// MIME type of each file is sniffed from its content.
func Collect(ctx context.Context, paths []string) ([]domain.SourceImage, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input paths given")
	}

	var files []domain.SourceImage
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			f, err := readFile(ctx, p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			f, err := readFile(ctx, filepath.Join(p, entry.Name()))
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}

	return files, nil
}

func readFile(ctx context.Context, path string) (domain.SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.SourceImage{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceImage{}, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.SourceImage{
		Name:     filepath.Base(path),
		Data:     data,
		MIMEType: DetectMIME(data),
	}, nil
}

// DetectMIME returns the media type of data without parameters.
func DetectMIME(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
