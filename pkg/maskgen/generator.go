package maskgen

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

// 未指定パラメータのサンプリング範囲です。
const (
	minRandomScale        = 0.1
	maxRandomScale        = 1.0
	minRandomEccentricity = 0.0
	maxRandomEccentricity = 0.99
)

// Result は1回の生成結果です。
type Result struct {
	Mask     *image.Gray
	Ellipse  domain.EllipseSpec
	Attempts int // 採用までに消費した試行回数
}

// Option は Generator の設定を変更します。
type Option func(*Generator)

// WithLogger はロガーを差し替えます。nil の場合は slog.Default() のままです。
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithBoundaryStep は境界判定の角度刻み（度）を変更します。
func WithBoundaryStep(deg int) Option {
	return func(g *Generator) {
		if deg > 0 {
			g.boundaryStep = deg
		}
	}
}

// Generator はランダムな楕円マスクを生成します。
// 乱数源を内部に持つため並行利用には対応していません。goroutine ごとに生成してください。
type Generator struct {
	src          rand.Source
	rng          *rand.Rand
	scale        distuv.Uniform
	eccentricity distuv.Uniform
	angle        distuv.Uniform
	boundaryStep int
	logger       *slog.Logger
}

// NewGenerator は乱数源を注入して Generator を初期化します。
func NewGenerator(src rand.Source, opts ...Option) (*Generator, error) {
	if src == nil {
		return nil, fmt.Errorf("src (rand.Source) is required")
	}

	g := &Generator{
		src:          src,
		rng:          rand.New(src),
		scale:        distuv.Uniform{Min: minRandomScale, Max: maxRandomScale, Src: src},
		eccentricity: distuv.Uniform{Min: minRandomEccentricity, Max: maxRandomEccentricity, Src: src},
		angle:        distuv.Uniform{Min: 0, Max: 360, Src: src},
		boundaryStep: DefaultBoundaryStep,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewSeededGenerator はシード値から再現可能な Generator を作成するのだ。
func NewSeededGenerator(seed uint64, opts ...Option) *Generator {
	// src が nil になることはないのでエラーは無視できる
	g, _ := NewGenerator(rand.NewPCG(seed, seed), opts...)
	return g
}

// Generate は width×height の画像に対する楕円マスクを生成します。
//
// AllowOutOfBounds が true の場合は1回だけサンプリングしてそのまま描画します。
// false の場合は境界内に収まる候補が見つかるまで最大 MaxAttempts 回まで棄却サンプリングを行います。
func (g *Generator) Generate(width, height int, params domain.MaskParameters) (*Result, error) {
	if err := validateParameters(width, height, params); err != nil {
		return nil, err
	}

	if params.AllowOutOfBounds {
		spec := g.sample(params, width, height)
		return &Result{Mask: Rasterize(spec, width, height), Ellipse: spec, Attempts: 1}, nil
	}

	allFixed := params.AllFixed()
	for attempt := 1; attempt <= params.MaxAttempts; attempt++ {
		spec := g.sample(params, width, height)

		// 退化した候補は境界判定の失敗には数えず、再試行の可否に関係なく次の試行へ進む
		if spec.SemiMajor <= 0 || spec.SemiMinor <= 0 {
			g.logger.Debug("楕円候補を棄却しました", "attempt", attempt, "reason", "degenerate",
				"semi_major", spec.SemiMajor, "semi_minor", spec.SemiMinor)
			continue
		}

		if PolylineInBounds(BoundaryPolyline(spec, g.boundaryStep), width, height) {
			return &Result{Mask: Rasterize(spec, width, height), Ellipse: spec, Attempts: attempt}, nil
		}

		if !params.RetryOnFailure || allFixed {
			return nil, &OutOfBoundsError{
				Ellipse:  spec,
				Width:    width,
				Height:   height,
				Attempt:  attempt,
				AllFixed: allFixed,
			}
		}
		g.logger.Debug("楕円候補を棄却しました", "attempt", attempt, "reason", "out_of_bounds",
			"center_x", spec.CenterX, "center_y", spec.CenterY,
			"semi_major", spec.SemiMajor, "semi_minor", spec.SemiMinor, "angle", spec.AngleDeg)
	}

	return nil, &ExhaustedAttemptsError{Attempts: params.MaxAttempts}
}

// sample は未指定のフィールドだけを再サンプリングして候補を作ります。
func (g *Generator) sample(params domain.MaskParameters, width, height int) domain.EllipseSpec {
	cx, ok := params.CenterX.Get()
	if !ok {
		cx = g.rng.IntN(width)
	}
	cy, ok := params.CenterY.Get()
	if !ok {
		cy = g.rng.IntN(height)
	}
	s, ok := params.Scale.Get()
	if !ok {
		s = g.scale.Rand()
	}
	e, ok := params.Eccentricity.Get()
	if !ok {
		e = g.eccentricity.Rand()
	}
	angle, ok := params.AngleDeg.Get()
	if !ok {
		angle = g.angle.Rand()
	}

	a, b := SemiAxes(s, e, width, height)
	return domain.EllipseSpec{
		CenterX:      cx,
		CenterY:      cy,
		SemiMajor:    a,
		SemiMinor:    b,
		AngleDeg:     NormalizeAngle(angle),
		Scale:        s,
		Eccentricity: e,
	}
}

func validateParameters(width, height int, params domain.MaskParameters) error {
	if width < 1 || height < 1 {
		return &InvalidParametersError{Field: "Size", Reason: fmt.Sprintf("画像サイズが不正です (%dx%d)", width, height)}
	}
	if s, ok := params.Scale.Get(); ok && !(s > 0 && s <= 1) {
		return &InvalidParametersError{Field: "Scale", Reason: fmt.Sprintf("(0, 1] の範囲外です: %v", s)}
	}
	if e, ok := params.Eccentricity.Get(); ok && !(e >= 0 && e < 1) {
		return &InvalidParametersError{Field: "Eccentricity", Reason: fmt.Sprintf("[0, 1) の範囲外です: %v", e)}
	}
	if a, ok := params.AngleDeg.Get(); ok && (math.IsNaN(a) || math.IsInf(a, 0)) {
		return &InvalidParametersError{Field: "AngleDeg", Reason: "有限の値ではありません"}
	}
	if x, ok := params.CenterX.Get(); ok && (x < 0 || x >= width) {
		return &InvalidParametersError{Field: "CenterX", Reason: fmt.Sprintf("[0, %d] の範囲外です: %d", width-1, x)}
	}
	if y, ok := params.CenterY.Get(); ok && (y < 0 || y >= height) {
		return &InvalidParametersError{Field: "CenterY", Reason: fmt.Sprintf("[0, %d] の範囲外です: %d", height-1, y)}
	}
	if !params.AllowOutOfBounds && params.MaxAttempts < 1 {
		return &InvalidParametersError{Field: "MaxAttempts", Reason: fmt.Sprintf("1 以上が必要です: %d", params.MaxAttempts)}
	}
	return nil
}
