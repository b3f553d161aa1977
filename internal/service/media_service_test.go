package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/storage"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

type memoryBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryBackend) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return nil
}

func (m *memoryBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func TestMediaServiceSaveImagesStoresAndServes(t *testing.T) {
	backend := newMemoryBackend()
	svc := NewMediaService(backend, MediaServiceConfig{PublicPath: "/api/v1/uploads/"}, nil)

	urls, err := svc.SaveImages(context.Background(), []UploadedFile{{Filename: "a.png", Data: pngBytes}})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.True(t, strings.HasPrefix(urls[0], "/api/v1/uploads/images/"))
	assert.True(t, strings.HasSuffix(urls[0], ".png"))

	key := strings.TrimPrefix(urls[0], "/api/v1/uploads/")
	assert.Equal(t, "image/png", backend.types[key])

	download, err := svc.OpenImage(context.Background(), key)
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, "image/png", download.ContentType)
	body, _ := io.ReadAll(download.Body)
	assert.Equal(t, pngBytes, body)
}

func TestMediaServiceSaveImagesRejects(t *testing.T) {
	svc := NewMediaService(newMemoryBackend(), MediaServiceConfig{MaxFileSize: 64}, nil)

	tooMany := make([]UploadedFile, maxImageCount+1)
	for i := range tooMany {
		tooMany[i] = UploadedFile{Filename: "a.png", Data: pngBytes}
	}
	cases := map[string][]UploadedFile{
		"too many":  tooMany,
		"not image": {{Filename: "doc.png", Data: pdfBytes}},
		"empty":     {{Filename: "a.png"}},
		"too large": {{Filename: "a.png", Data: append(pngBytes, make([]byte, 64)...)}},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SaveImages(context.Background(), files)
			assert.True(t, errors.Is(err, appErrors.ErrValidation), "got %v", err)
		})
	}

	urls, err := svc.SaveImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestMediaServiceOpenImageOnlyServesImages(t *testing.T) {
	backend := newMemoryBackend()
	backend.objects["materials/secret.pdf"] = pdfBytes
	svc := NewMediaService(backend, MediaServiceConfig{}, nil)

	_, err := svc.OpenImage(context.Background(), "materials/secret.pdf")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.OpenImage(context.Background(), "images/../materials/secret.pdf")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.OpenImage(context.Background(), "images/missing.png")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
