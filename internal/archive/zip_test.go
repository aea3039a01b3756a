package archive

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/dunamismax/photocompress/internal/domain"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackRoundTrip(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []domain.TranscodedOutput{
		{Name: "a.webp", Data: []byte("first image")},
		{Name: "b.webp", Data: bytes.Repeat([]byte{0x42}, 4096)},
	}

	archive, err := PackAt(context.Background(), "", entries, modified)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultArchiveName, archive.Name)
	assert.Equal(t, 2, archive.Entries)

	zr, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	for i, f := range zr.File {
		assert.Equal(t, entries[i].Name, f.Name)
		assert.Equal(t, zip.Deflate, f.Method)
		assert.True(t, f.Modified.Equal(modified), "modified=%s", f.Modified)

		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, entries[i].Data, data)
	}
}

func TestPackEmpty(t *testing.T) {
	archive, err := Pack(context.Background(), "out.zip", nil)
	require.NoError(t, err)
	assert.Equal(t, "out.zip", archive.Name)
	assert.Zero(t, archive.Entries)

	zr, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}

func TestPackHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Pack(ctx, "", []domain.TranscodedOutput{{Name: "a.webp", Data: []byte("x")}})
	assert.ErrorIs(t, err, context.Canceled)
}
