package anomaly

import (
	"context"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/imgutil"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// mockInpainter は generator.Inpainter のテスト用モックなのだ。
type mockInpainter struct {
	mu          sync.Mutex
	requests    []domain.InpaintRequest
	inpaintFunc func(ctx context.Context, req domain.InpaintRequest) (*domain.ImageResponse, error)
}

func (m *mockInpainter) Inpaint(ctx context.Context, req domain.InpaintRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.inpaintFunc != nil {
		return m.inpaintFunc(ctx, req)
	}
	return nil, nil
}

// mockReader は SourceReader のテスト用モックなのだ。
type mockReader struct {
	openFunc func(ctx context.Context, uri string) (io.ReadCloser, error)
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, uri)
	}
	return nil, nil
}

// writeImage は単色の画像を保存するヘルパーなのだ。
func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	p := filepath.Join(dir, name)
	require.NoError(t, imgutil.Save(p, img))
	return p
}
