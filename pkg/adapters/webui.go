package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/utils"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const (
	pathModels  = "/sdapi/v1/sd-models"
	pathOptions = "/sdapi/v1/options"
	pathImg2Img = "/sdapi/v1/img2img"
)

// JSONClient は WebUI との通信に必要な HTTP 操作を抽象化するインターフェースです。
type JSONClient interface {
	FetchAndDecodeJSON(ctx context.Context, url string, v any) error
	PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error)
}

// httpkit.ClientInterface をそのまま渡せることをコンパイル時に確認するのだ
var _ JSONClient = (httpkit.ClientInterface)(nil)

// SDModel は WebUI に登録されているチェックポイントです。
type SDModel struct {
	Title     string `json:"title"`
	ModelName string `json:"model_name"`
	Hash      string `json:"hash"`
	Filename  string `json:"filename"`
}

type img2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// WebUIInpainter は Stable Diffusion WebUI の img2img API を使う Inpainter です。
type WebUIInpainter struct {
	client  JSONClient
	baseURL string
	logger  *slog.Logger
}

// NewWebUIInpainter は依存関係を注入して WebUIInpainter を初期化します。
func NewWebUIInpainter(client JSONClient, baseURL string, logger *slog.Logger) (*WebUIInpainter, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebUIInpainter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// ListModels は利用可能なモデルの一覧を取得します。
func (w *WebUIInpainter) ListModels(ctx context.Context) ([]SDModel, error) {
	var models []SDModel
	if err := w.client.FetchAndDecodeJSON(ctx, w.baseURL+pathModels, &models); err != nil {
		return nil, fmt.Errorf("モデル一覧の取得に失敗しました: %w", err)
	}
	return models, nil
}

// SetModel は使用するチェックポイントを切り替えます。
func (w *WebUIInpainter) SetModel(ctx context.Context, title string) error {
	payload := map[string]any{"sd_model_checkpoint": title}
	if _, err := w.client.PostJSONAndFetchBytes(ctx, w.baseURL+pathOptions, payload); err != nil {
		return fmt.Errorf("モデルの設定に失敗しました (%s): %w", title, err)
	}
	w.logger.InfoContext(ctx, "モデルを設定しました", "model", title)
	return nil
}

// Inpaint は元画像とマスクを base64 で送信し、最初の生成画像を返します。
func (w *WebUIInpainter) Inpaint(ctx context.Context, req domain.InpaintRequest) (*domain.ImageResponse, error) {
	if len(req.InitImage) == 0 || len(req.Mask) == 0 {
		return nil, fmt.Errorf("InitImage と Mask は必須です")
	}

	seed := utils.SeedOrDefault(req.Seed, -1)
	payload := BuildImg2ImgPayload(req, seed)

	body, err := w.client.PostJSONAndFetchBytes(ctx, w.baseURL+pathImg2Img, payload)
	if err != nil {
		return nil, fmt.Errorf("WebUIインペイント生成エラー: %w", err)
	}

	var res img2imgResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("レスポンスパースに失敗しました: %w", err)
	}
	if len(res.Images) == 0 {
		return nil, fmt.Errorf("画像データが見つかりませんでした")
	}

	data, err := base64.StdEncoding.DecodeString(stripDataURL(res.Images[0]))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	return &domain.ImageResponse{
		Data:     data,
		MimeType: http.DetectContentType(data),
		UsedSeed: usedSeed(res.Info, seed),
	}, nil
}

// DefaultImg2ImgPayload は img2img の既定パラメータを返します。
func DefaultImg2ImgPayload() map[string]any {
	return map[string]any{
		"styles":                               []string{},
		"seed":                                 -1,
		"subseed":                              -1,
		"subseed_strength":                     0.0,
		"seed_resize_from_h":                   -1,
		"seed_resize_from_w":                   -1,
		"batch_size":                           1,
		"n_iter":                               1,
		"steps":                                100,
		"cfg_scale":                            7.0,
		"width":                                512,
		"height":                               512,
		"restore_faces":                        false,
		"tiling":                               false,
		"do_not_save_samples":                  false,
		"do_not_save_grid":                     false,
		"eta":                                  0.0,
		"denoising_strength":                   0.75,
		"s_min_uncond":                         0.0,
		"s_churn":                              0.0,
		"s_tmax":                               0.0,
		"s_tmin":                               0.0,
		"s_noise":                              1.0,
		"override_settings":                    map[string]any{},
		"override_settings_restore_afterwards": true,
		"resize_mode":                          0,
		"mask_blur_x":                          4,
		"mask_blur_y":                          4,
		"mask_blur":                            4,
		"mask_round":                           true,
		"inpainting_fill":                      1,
		"inpaint_full_res":                     true,
		"inpaint_full_res_padding":             0,
		"inpainting_mask_invert":               0,
		"initial_noise_multiplier":             1.0,
		"sampler_index":                        "Euler a",
		"include_init_images":                  false,
		"script_args":                          []any{},
		"send_images":                          true,
		"save_images":                          false,
		"alwayson_scripts":                     map[string]any{},
		"infotext":                             "",
	}
}

// BuildImg2ImgPayload は既定値にリクエスト内容と上書きパラメータを重ねます。
// 値が nil の上書きはキーごと取り除かれます。
func BuildImg2ImgPayload(req domain.InpaintRequest, seed int64) map[string]any {
	payload := DefaultImg2ImgPayload()
	payload["prompt"] = req.Prompt
	payload["negative_prompt"] = req.NegativePrompt
	payload["seed"] = seed
	payload["init_images"] = []string{base64.StdEncoding.EncodeToString(req.InitImage)}
	payload["mask"] = base64.StdEncoding.EncodeToString(req.Mask)

	maps.Copy(payload, req.Parameters)
	maps.DeleteFunc(payload, func(_ string, v any) bool { return v == nil })
	return payload
}

// stripDataURL は "data:image/png;base64," のような接頭辞があれば取り除きます。
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// usedSeed は info (JSON 文字列) に記録された実際のシードを取り出します。
func usedSeed(info string, fallback int64) int64 {
	var parsed struct {
		Seed *int64 `json:"seed"`
	}
	if info == "" || json.Unmarshal([]byte(info), &parsed) != nil || parsed.Seed == nil {
		return fallback
	}
	return *parsed.Seed
}
