package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dunamismax/photocompress/internal/domain"
)

// Delivery describes where an archive was handed off to.
type Delivery struct {
	Emitter  string
	Location string
	URL      string
	Bytes    int
}

type Emitter interface {
	Emit(ctx context.Context, runID string, archive domain.Archive) (Delivery, error)
}

// Discarder is implemented by emitters that can withdraw a completed
// delivery when a later step of the run fails.
type Discarder interface {
	Discard(ctx context.Context, delivery Delivery) error
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(ctx context.Context, _ string, archive domain.Archive) (Delivery, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Delivery{}, errors.New("output directory is required")
	}

	select {
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	default:
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return Delivery{}, fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(e.OutputDir, archiveFileName(archive.Name))
	if err := os.WriteFile(fullPath, archive.Data, 0o644); err != nil {
		return Delivery{}, fmt.Errorf("write archive file: %w", err)
	}

	return Delivery{
		Emitter:  "local",
		Location: fullPath,
		Bytes:    len(archive.Data),
	}, nil
}

// Discard removes the archive file written by Emit.
func (e LocalFileEmitter) Discard(_ context.Context, delivery Delivery) error {
	if delivery.Location == "" {
		return nil
	}
	if err := os.Remove(delivery.Location); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove archive file: %w", err)
	}
	return nil
}

type objectWriter interface {
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, objectKey string) error
	PresignedGetURL(ctx context.Context, objectKey, downloadName string, expiry time.Duration) (string, error)
}

type ObjectStoreEmitter struct {
	Storage      objectWriter
	OutputPrefix string
	PresignTTL   time.Duration
}

func (e ObjectStoreEmitter) Emit(ctx context.Context, runID string, archive domain.Archive) (Delivery, error) {
	if e.Storage == nil {
		return Delivery{}, errors.New("storage client is required")
	}

	name := archiveFileName(archive.Name)
	objectKey := path.Join(
		defaultOutputPrefix(e.OutputPrefix),
		sanitizePathToken(runID),
		name,
	)

	if err := e.Storage.WriteObject(ctx, objectKey, archive.Data, "application/zip"); err != nil {
		return Delivery{}, err
	}

	ttl := e.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	url, err := e.Storage.PresignedGetURL(ctx, objectKey, name, ttl)
	if err != nil {
		return Delivery{}, err
	}

	return Delivery{
		Emitter:  "object_store",
		Location: objectKey,
		URL:      url,
		Bytes:    len(archive.Data),
	}, nil
}

// Discard deletes the uploaded object. A presigned URL handed out by Emit
// stops resolving once the object is gone.
func (e ObjectStoreEmitter) Discard(ctx context.Context, delivery Delivery) error {
	if e.Storage == nil {
		return errors.New("storage client is required")
	}
	if delivery.Location == "" {
		return nil
	}
	return e.Storage.RemoveObject(ctx, delivery.Location)
}

func archiveFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return domain.DefaultArchiveName
	}
	return name
}

func defaultOutputPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "archives"
	}
	return prefix
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
