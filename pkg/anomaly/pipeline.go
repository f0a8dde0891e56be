package anomaly

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/generator"
	"github.com/shouni/anomaly-image-kit/pkg/imgutil"
	"github.com/shouni/anomaly-image-kit/pkg/maskgen"
	"golang.org/x/sync/errgroup"
)

const (
	SourceDir    = "source_images"
	MaskDir      = "mask_images"
	GeneratedDir = "generated_images"
)

// ItemResult は1枚分の処理結果です。
type ItemResult struct {
	Index     int
	Source    string // 入力 URI
	Image     string // 出力ディレクトリに置いた元画像
	Mask      string
	Generated string // インペイントを行わない場合は空
	Ellipse   domain.EllipseSpec
	Attempts  int
}

// ItemError は1枚分の失敗です。
type ItemError struct {
	Index  int
	Source string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("画像 %d (%s) の処理に失敗しました: %v", e.Index, e.Source, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Report はバッチ全体の結果です。どちらも Index 順に並びます。
type Report struct {
	Succeeded []ItemResult
	Failed    []ItemError
}

// PipelineOption は Pipeline の設定を変更します。
type PipelineOption func(*Pipeline)

func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline は入力画像ごとに楕円マスクを作り、インペイントで欠陥画像を生成します。
type Pipeline struct {
	source    Source
	inpainter generator.Inpainter
	cfg       Config
	prompt    string
	logger    *slog.Logger
}

// NewPipeline は Pipeline を生成します。inpainter が nil の場合はマスクの生成までを行います。
func NewPipeline(source Source, inpainter generator.Inpainter, cfg Config, opts ...PipelineOption) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:    source,
		inpainter: inpainter,
		cfg:       cfg,
		prompt:    cfg.Prompt.Build(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run は inputURI 配下の画像を処理します。
// 個々の失敗は Report に記録して処理を続けますが、FailFast の場合は最初の失敗で中断してそのエラーを返します。
func (p *Pipeline) Run(ctx context.Context, inputURI string) (*Report, error) {
	var uris []string
	err := p.source.List(ctx, inputURI, func(uri string) error {
		if _, err := imaging.FormatFromFilename(uri); err != nil {
			p.logger.WarnContext(ctx, "対応していない形式のためスキップします", "uri", uri)
			return nil
		}
		uris = append(uris, uri)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("入力画像の列挙に失敗しました: %w", err)
	}

	p.logger.Info("バッチ処理を開始します", "input", inputURI, "count", len(uris), "concurrency", p.cfg.Concurrency)

	report := &Report{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, uri := range uris {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := p.processItem(gctx, i, uri)

			mu.Lock()
			defer mu.Unlock()
			// FailFast で中断された処理は本来の失敗ではないので記録しない
			if err != nil && gctx.Err() != nil && errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				p.logger.WarnContext(gctx, "画像の処理に失敗しました", "index", i, "uri", uri, "error", err)
				itemErr := ItemError{Index: i, Source: uri, Err: err}
				report.Failed = append(report.Failed, itemErr)
				if p.cfg.FailFast {
					return &itemErr
				}
				return nil
			}
			report.Succeeded = append(report.Succeeded, *res)
			return nil
		})
	}
	waitErr := g.Wait()

	slices.SortFunc(report.Succeeded, func(a, b ItemResult) int { return a.Index - b.Index })
	slices.SortFunc(report.Failed, func(a, b ItemError) int { return a.Index - b.Index })

	p.logger.Info("バッチ処理が完了しました", "succeeded", len(report.Succeeded), "failed", len(report.Failed))

	if waitErr != nil {
		return report, waitErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) processItem(ctx context.Context, index int, uri string) (*ItemResult, error) {
	ext := strings.ToLower(path.Ext(uri))
	imagePath := filepath.Join(p.cfg.OutputDir, SourceDir, fmt.Sprintf("%d%s", index, ext))
	maskPath := filepath.Join(p.cfg.OutputDir, MaskDir, fmt.Sprintf("%d.png", index))

	if err := p.stage(ctx, uri, imagePath); err != nil {
		return nil, err
	}

	// 画像ごとに独立したシードを使うので、並列度に関係なく同じマスクになるのだ
	gen := maskgen.NewSeededGenerator(p.cfg.Seed+uint64(index), maskgen.WithLogger(p.logger))
	res, err := gen.GenerateFiles(maskgen.FilePaths{
		Input:       imagePath,
		OutputImage: imagePath,
		OutputMask:  maskPath,
	}, p.cfg.Mask)
	if err != nil {
		return nil, err
	}

	item := &ItemResult{
		Index:    index,
		Source:   uri,
		Image:    imagePath,
		Mask:     maskPath,
		Ellipse:  res.Ellipse,
		Attempts: res.Attempts,
	}
	if p.inpainter == nil {
		return item, nil
	}

	generated, err := p.inpaint(ctx, index, imagePath, maskPath)
	if err != nil {
		return nil, err
	}
	item.Generated = generated
	return item, nil
}

// stage は入力画像を出力ディレクトリへ取り込みます。
func (p *Pipeline) stage(ctx context.Context, uri, dst string) error {
	rc, err := p.source.Open(ctx, uri)
	if err != nil {
		return &maskgen.InvalidSourceError{Path: uri, Err: err}
	}
	defer rc.Close()

	if err := imgutil.WriteFileAtomic(dst, rc); err != nil {
		return fmt.Errorf("入力画像の保存に失敗しました: %w", err)
	}
	return nil
}

func (p *Pipeline) inpaint(ctx context.Context, index int, imagePath, maskPath string) (string, error) {
	initImage, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	mask, err := os.ReadFile(maskPath)
	if err != nil {
		return "", err
	}

	resp, err := p.inpainter.Inpaint(ctx, domain.InpaintRequest{
		InitImage:      initImage,
		Mask:           mask,
		Prompt:         p.prompt,
		NegativePrompt: p.cfg.Prompt.Negative,
		Seed:           p.cfg.InpaintSeed,
		Parameters:     p.cfg.Parameters,
	})
	if err != nil {
		return "", fmt.Errorf("インペイントに失敗しました: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return "", errEmptyImage
	}

	dst := filepath.Join(p.cfg.OutputDir, GeneratedDir, fmt.Sprintf("%d%s", index, extensionForMime(resp.MimeType)))
	if err := imgutil.WriteFileAtomic(dst, bytes.NewReader(resp.Data)); err != nil {
		return "", fmt.Errorf("生成画像の保存に失敗しました: %w", err)
	}
	p.logger.Info("欠陥画像を生成しました", "index", index, "path", dst, "seed", resp.UsedSeed)
	return dst, nil
}

var errEmptyImage = errors.New("生成画像が空です")

func extensionForMime(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	default:
		return ".bin"
	}
}
