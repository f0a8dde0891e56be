package domain

import (
	"fmt"
	"strings"
)

// InpaintRequest は、元画像とマスクから欠陥画像を生成する単一の要求です。
type InpaintRequest struct {
	InitImage      []byte
	Mask           []byte
	Prompt         string
	NegativePrompt string
	Seed           *int64 // nil でランダム、値指定で固定
	// Parameters はバックエンド固有の生成パラメータ（steps, cfg_scale など）の上書きです。
	Parameters map[string]any
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
	UsedSeed int64 // 戻り値は情報欠落を防ぐため int64
}

// PromptTerm は重み付きのプロンプト要素です。
type PromptTerm struct {
	Text   string  `json:"text" yaml:"text"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// BuildPrompt は "(text:weight), ..." 形式のプロンプトを組み立て、最後に suffix を付けます。
func BuildPrompt(terms []PromptTerm, suffix string) string {
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("(%s:%g)", t.Text, t.Weight))
	}
	if s := strings.TrimSpace(suffix); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
