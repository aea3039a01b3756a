// Package archive bundles transcoded outputs into a single zip container.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/klauspost/compress/zip"
)

// Pack writes entries into one zip blob in the given order. Entry names are
// used verbatim as paths and the data is stored as is.
func Pack(ctx context.Context, name string, entries []domain.TranscodedOutput) (domain.Archive, error) {
	return PackAt(ctx, name, entries, time.Now())
}

// PackAt is Pack with an explicit modification time for every entry.
func PackAt(ctx context.Context, name string, entries []domain.TranscodedOutput, modified time.Time) (domain.Archive, error) {
	if strings.TrimSpace(name) == "" {
		name = domain.DefaultArchiveName
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return domain.Archive{}, err
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			_ = zw.Close()
			return domain.Archive{}, fmt.Errorf("create zip entry %s: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			_ = zw.Close()
			return domain.Archive{}, fmt.Errorf("write zip entry %s: %w", entry.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return domain.Archive{}, fmt.Errorf("finalize zip: %w", err)
	}

	return domain.Archive{
		Name:    name,
		Data:    buf.Bytes(),
		Entries: len(entries),
	}, nil
}
