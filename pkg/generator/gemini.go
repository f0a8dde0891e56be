package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/imgutil"
	"github.com/shouni/anomaly-image-kit/pkg/utils"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GeminiInpainter は Gemini の画像生成モデルを使って欠陥をインペイントする Inpainter です。
type GeminiInpainter struct {
	aiClient ContentGenerator
	model    string
	logger   *slog.Logger
}

// NewGeminiInpainter は依存関係を注入して GeminiInpainter を初期化します。
func NewGeminiInpainter(aiClient ContentGenerator, model string, logger *slog.Logger) (*GeminiInpainter, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiInpainter{aiClient: aiClient, model: model, logger: logger}, nil
}

// Inpaint は元画像・マスク・プロンプトを1つのリクエストにまとめて生成を実行します。
func (g *GeminiInpainter) Inpaint(ctx context.Context, req domain.InpaintRequest) (*domain.ImageResponse, error) {
	parts, err := g.buildParts(req)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "Geminiにインペイントをリクエストします", "model", g.model, "parts", len(parts))
	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gemini.GenerateOptions{
		SystemPrompt: inpaintSystemPrompt,
		Seed:         req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiインペイント生成エラー: %w", err)
	}

	out, err := parseToResponse(resp, utils.DereferenceSeed(req.Seed))
	if err != nil {
		return nil, fmt.Errorf("レスポンスパースに失敗しました: %w", err)
	}
	return &domain.ImageResponse{
		Data:     out.Data,
		MimeType: out.MimeType,
		UsedSeed: out.UsedSeed,
	}, nil
}

// buildParts はテキスト、元画像、マスクの順にパーツを組み立てるのだ。
// マスクは値が変わると意味が壊れるので圧縮しません。
func (g *GeminiInpainter) buildParts(req domain.InpaintRequest) ([]*genai.Part, error) {
	initData := req.InitImage
	if UseImageCompression {
		if compressed, err := imgutil.CompressToJPEG(initData, ImageCompressionQuality); err == nil {
			initData = compressed
		}
	}

	initPart := toPart(initData)
	if initPart == nil {
		return nil, fmt.Errorf("元画像を画像パーツに変換できませんでした")
	}
	maskPart := toPart(req.Mask)
	if maskPart == nil {
		return nil, fmt.Errorf("マスクを画像パーツに変換できませんでした")
	}

	prompt := req.Prompt + "\nThe first image is the source, the second image is the mask (white = area to repaint)."
	if req.NegativePrompt != "" {
		prompt += "\nAvoid: " + req.NegativePrompt
	}
	return []*genai.Part{{Text: prompt}, initPart, maskPart}, nil
}
