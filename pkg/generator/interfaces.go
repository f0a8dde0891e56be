package generator

import (
	"context"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// Inpainter は元画像とマスクから、マスク領域を描き直した画像を生成する外部協調者です。
type Inpainter interface {
	Inpaint(ctx context.Context, req domain.InpaintRequest) (*domain.ImageResponse, error)
}

// ContentGenerator は Gemini クライアントのうち、インペイントに必要な部分だけを切り出したインターフェースです。
type ContentGenerator interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// gemini.GenerativeModel をそのまま渡せることをコンパイル時に確認するのだ
var _ ContentGenerator = (gemini.GenerativeModel)(nil)
