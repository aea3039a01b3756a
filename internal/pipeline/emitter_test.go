package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileEmitterWritesArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	archive := domain.Archive{Name: domain.DefaultArchiveName, Data: []byte("PK\x03\x04"), Entries: 1}

	delivery, err := LocalFileEmitter{OutputDir: dir}.Emit(context.Background(), "run-1", archive)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "compressed_images.zip"), delivery.Location)
	written, err := os.ReadFile(delivery.Location)
	require.NoError(t, err)
	assert.Equal(t, archive.Data, written)
}

func TestLocalFileEmitterIgnoresDirectoriesInName(t *testing.T) {
	dir := t.TempDir()
	archive := domain.Archive{Name: "../../escape.zip", Data: []byte("zip")}

	delivery, err := LocalFileEmitter{OutputDir: dir}.Emit(context.Background(), "run-1", archive)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.zip"), delivery.Location)
}

func TestObjectStoreEmitter(t *testing.T) {
	store := &recordingObjectStore{}
	emitter := ObjectStoreEmitter{Storage: store, PresignTTL: time.Hour}

	delivery, err := emitter.Emit(context.Background(), "run/1", domain.Archive{Data: []byte("zip")})
	require.NoError(t, err)

	assert.Equal(t, "archives/run_1/compressed_images.zip", store.key)
	assert.Equal(t, "application/zip", store.contentType)
	assert.Equal(t, time.Hour, store.expiry)
	assert.Equal(t, "https://minio.local/archives/run_1/compressed_images.zip", delivery.URL)
	assert.Equal(t, "object_store", delivery.Emitter)
}

func TestLocalFileEmitterDiscard(t *testing.T) {
	dir := t.TempDir()
	emitter := LocalFileEmitter{OutputDir: dir}

	delivery, err := emitter.Emit(context.Background(), "run-1", domain.Archive{Data: []byte("zip")})
	require.NoError(t, err)

	require.NoError(t, emitter.Discard(context.Background(), delivery))
	_, err = os.Stat(delivery.Location)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, emitter.Discard(context.Background(), delivery), "discarding twice is harmless")
}

func TestObjectStoreEmitterDiscard(t *testing.T) {
	store := &recordingObjectStore{}
	emitter := ObjectStoreEmitter{Storage: store}

	delivery, err := emitter.Emit(context.Background(), "run-2", domain.Archive{Data: []byte("zip")})
	require.NoError(t, err)
	require.NoError(t, emitter.Discard(context.Background(), delivery))
	assert.Equal(t, []string{"archives/run-2/compressed_images.zip"}, store.removed)
}

type recordingObjectStore struct {
	key         string
	contentType string
	expiry      time.Duration
	removed     []string
}

func (s *recordingObjectStore) RemoveObject(_ context.Context, objectKey string) error {
	s.removed = append(s.removed, objectKey)
	return nil
}

func (s *recordingObjectStore) WriteObject(_ context.Context, objectKey string, _ []byte, contentType string) error {
	s.key = objectKey
	s.contentType = contentType
	return nil
}

func (s *recordingObjectStore) PresignedGetURL(_ context.Context, objectKey, _ string, expiry time.Duration) (string, error) {
	s.expiry = expiry
	return "https://minio.local/" + objectKey, nil
}
