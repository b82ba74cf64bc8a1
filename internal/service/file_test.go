package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/storage"
)

type memoryStore struct {
	objects map[string][]byte
	putErr  error
	failAt  int
	puts    int
	removed []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (*storage.Object, error) {
	s.puts++
	if s.putErr != nil && (s.failAt == 0 || s.puts == s.failAt) {
		return nil, s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.objects[key] = data
	return &storage.Object{Key: key, URL: "https://cdn.test/" + key, Size: size, ContentType: contentType}, nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func pngUpload(name string) FileUpload {
	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)
	return FileUpload{Name: name, Size: int64(len(data)), Reader: bytes.NewReader(data)}
}

// ============================================================================
// Upload
// ============================================================================

func TestUpload_StoresImage(t *testing.T) {
	store := newMemoryStore()
	svc := NewFileService(store, 0, nil)
	in := pngUpload("a.png")

	f, err := svc.Upload(context.Background(), "user:1", "avatar", in)
	require.NoError(t, err)

	assert.Equal(t, "image/png", f.ContentType)
	assert.True(t, strings.HasPrefix(f.PublicID, "eventup/avatar/user:1/"))
	assert.True(t, strings.HasSuffix(f.PublicID, ".png"))
	assert.Equal(t, "https://cdn.test/"+f.PublicID, f.URL)
	// The sniffed head must be replayed in front of the body
	assert.Len(t, store.objects[f.PublicID], int(in.Size))
	assert.Equal(t, byte(0x89), store.objects[f.PublicID][0])
}

func TestUpload_UnknownFolderFallsBack(t *testing.T) {
	svc := NewFileService(newMemoryStore(), 0, nil)

	f, err := svc.Upload(context.Background(), "user:1", "../etc", pngUpload("a.png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.PublicID, "eventup/general/"))
}

func TestUpload_Rejections(t *testing.T) {
	text := []byte("just some plain text, not an image")
	tests := []struct {
		name    string
		maxSize int64
		in      FileUpload
		want    error
	}{
		{"missing", 0, FileUpload{Name: "x"}, ErrFileRequired},
		{"too large", 10, pngUpload("big.png"), ErrFileTooLarge},
		{"not an image", 0, FileUpload{Name: "a.txt", Size: int64(len(text)), Reader: bytes.NewReader(text)}, ErrUnsupportedFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFileService(newMemoryStore(), tt.maxSize, nil)
			_, err := svc.Upload(context.Background(), "user:1", "general", tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpload_StorageDisabled(t *testing.T) {
	svc := NewFileService(nil, 0, nil)

	_, err := svc.Upload(context.Background(), "user:1", "general", pngUpload("a.png"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, svc.Delete(context.Background(), "user:1", "eventup/general/user:1/x.png"), ErrStorageUnavailable)
}

func TestUploadMany_RemovesPartialUploads(t *testing.T) {
	store := newMemoryStore()
	store.putErr = errors.New("bucket gone")
	store.failAt = 2
	svc := NewFileService(store, 0, nil)

	_, err := svc.UploadMany(context.Background(), "user:1", "poster", []FileUpload{pngUpload("1.png"), pngUpload("2.png")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Len(t, store.removed, 1)
	assert.Empty(t, store.objects)
}

func TestUploadMany_Limits(t *testing.T) {
	svc := NewFileService(newMemoryStore(), 0, nil)

	_, err := svc.UploadMany(context.Background(), "user:1", "poster", nil)
	assert.ErrorIs(t, err, ErrFileRequired)

	files := make([]FileUpload, MaxUploadFiles+1)
	for i := range files {
		files[i] = pngUpload("p.png")
	}
	_, err = svc.UploadMany(context.Background(), "user:1", "poster", files)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestDelete(t *testing.T) {
	store := newMemoryStore()
	svc := NewFileService(store, 0, nil)

	require.NoError(t, svc.Delete(context.Background(), "user:1", "/eventup/general/user:1/a.png"))
	assert.Equal(t, []string{"eventup/general/user:1/a.png"}, store.removed)

	assert.ErrorIs(t, svc.Delete(context.Background(), "user:1", ""), ErrFileRequired)
	assert.ErrorIs(t, svc.Delete(context.Background(), "user:1", "eventup/../secret"), ErrFileRequired)
}

func TestDelete_OtherUsersFile(t *testing.T) {
	store := newMemoryStore()
	svc := NewFileService(store, 0, nil)

	uploaded, err := svc.Upload(context.Background(), "user:1", "avatar", pngUpload("me.png"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), "user:2", uploaded.PublicID), ErrFileForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), "user:2", "eventup/avatar"), ErrFileForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), "", uploaded.PublicID), ErrFileForbidden)
	assert.Empty(t, store.removed)
	assert.Contains(t, store.objects, uploaded.PublicID)

	require.NoError(t, svc.Delete(context.Background(), "user:1", uploaded.PublicID))
	assert.Equal(t, []string{uploaded.PublicID}, store.removed)
}
