package anomaly

import (
	"fmt"
	"os"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputDir   = "output_images"
	DefaultConcurrency = 1

	DefaultPromptSuffix   = "photorealistic, ultra high resolution, sharp focus, realistic lighting, metallic sheen, macro photography"
	DefaultNegativePrompt = "(blurry), (low quality), (distortions), (unnatural colors), (non-metal elements), (concept art), (abstract), " +
		"(digital artifacts), (overexposed), (underexposed), (noise), (grainy), (low resolution), (watermark), (text), (people), (animals)"
)

// PromptConfig は欠陥生成用プロンプトの構成です。
type PromptConfig struct {
	Terms    []domain.PromptTerm `yaml:"terms"`
	Suffix   string              `yaml:"suffix"`
	Negative string              `yaml:"negative"`
}

// Build は重み付き要素と suffix から正のプロンプトを組み立てます。
func (p PromptConfig) Build() string {
	return domain.BuildPrompt(p.Terms, p.Suffix)
}

// Config はバッチ処理の設定です。
type Config struct {
	OutputDir   string                `yaml:"output_dir"`
	Concurrency int                   `yaml:"concurrency"`
	Seed        uint64                `yaml:"seed"`      // マスク生成の乱数シード。画像 i には Seed+i を使う
	FailFast    bool                  `yaml:"fail_fast"` // true なら最初の失敗でバッチを中断する
	Mask        domain.MaskParameters `yaml:"mask"`
	Prompt      PromptConfig          `yaml:"prompt"`

	// インペイント側の設定
	InpaintSeed *int64         `yaml:"inpaint_seed"`
	Parameters  map[string]any `yaml:"parameters"`
}

// DefaultConfig は既定の設定を返します。
func DefaultConfig() Config {
	return Config{
		OutputDir:   DefaultOutputDir,
		Concurrency: DefaultConcurrency,
		Mask:        domain.DefaultMaskParameters(),
		Prompt: PromptConfig{
			Terms: []domain.PromptTerm{
				{Text: "White-painted metal surface with realistic scratches", Weight: 1.5},
				{Text: "scratches revealing underlying bare metal", Weight: 15},
				{Text: "aged and worn paint with chipping and peeling", Weight: 1.2},
				{Text: "highly detailed texture with fine imperfections", Weight: 1},
			},
			Suffix:   DefaultPromptSuffix,
			Negative: DefaultNegativePrompt,
		},
	}
}

// LoadConfig は YAML ファイルから設定を読み込みます。
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig は既定値の上に YAML の内容を重ねます。
// mask セクションで null を明示したフィールドは未指定（ランダム）に戻ります。
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}

	var raw struct {
		Mask map[string]any `yaml:"mask"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	resetNullMaskFields(raw.Mask, &cfg.Mask)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値を検証します。
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency は 1 以上が必要です: %d", c.Concurrency)
	}
	return nil
}

func resetNullMaskFields(raw map[string]any, p *domain.MaskParameters) {
	for key, v := range raw {
		if v != nil {
			continue
		}
		switch key {
		case "scale":
			p.Scale = domain.None[float64]()
		case "eccentricity":
			p.Eccentricity = domain.None[float64]()
		case "center_x":
			p.CenterX = domain.None[int]()
		case "center_y":
			p.CenterY = domain.None[int]()
		case "angle":
			p.AngleDeg = domain.None[float64]()
		}
	}
}
