package maskgen

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/imgutil"
	"gonum.org/v1/gonum/stat/distuv"
)

// BBoxMaskOptions は外接矩形の大きさと回転角の範囲から楕円マスクを作るための設定です。
// 楕円は幅 × 高さの矩形に内接し、矩形の中心を軸に回転します。
type BBoxMaskOptions struct {
	MinWidth, MaxWidth   int // 外接矩形の幅（ピクセル）
	MinHeight, MaxHeight int
	MinAngle, MaxAngle   float64 // 回転角（度）
	MaxAttempts          int
}

// DefaultBBoxMaskOptions は 400x400 程度の画像向けの既定値を返します。
func DefaultBBoxMaskOptions() BBoxMaskOptions {
	return BBoxMaskOptions{
		MinWidth:    100,
		MaxWidth:    200,
		MinHeight:   75,
		MaxHeight:   150,
		MinAngle:    -45,
		MaxAngle:    45,
		MaxAttempts: 100,
	}
}

func (o BBoxMaskOptions) validate(width, height int) error {
	if width < 1 || height < 1 {
		return &InvalidParametersError{Field: "Size", Reason: fmt.Sprintf("画像サイズが不正です (%dx%d)", width, height)}
	}
	if o.MinWidth < 2 || o.MinWidth > o.MaxWidth || o.MaxWidth > width {
		return &InvalidParametersError{Field: "Width", Reason: fmt.Sprintf("2 <= min <= max <= %d が必要です: [%d, %d]", width, o.MinWidth, o.MaxWidth)}
	}
	if o.MinHeight < 2 || o.MinHeight > o.MaxHeight || o.MaxHeight > height {
		return &InvalidParametersError{Field: "Height", Reason: fmt.Sprintf("2 <= min <= max <= %d が必要です: [%d, %d]", height, o.MinHeight, o.MaxHeight)}
	}
	if math.IsNaN(o.MinAngle) || math.IsInf(o.MinAngle, 0) || math.IsNaN(o.MaxAngle) || math.IsInf(o.MaxAngle, 0) || o.MinAngle > o.MaxAngle {
		return &InvalidParametersError{Field: "Angle", Reason: fmt.Sprintf("有限で min <= max が必要です: [%v, %v]", o.MinAngle, o.MaxAngle)}
	}
	if o.MaxAttempts < 1 {
		return &InvalidParametersError{Field: "MaxAttempts", Reason: fmt.Sprintf("1 以上が必要です: %d", o.MaxAttempts)}
	}
	return nil
}

// GenerateBBox は外接矩形を画像内に置いてから回転し、回転後の境界が画像内に収まる楕円マスクを作ります。
// 収まらない候補は棄却し、MaxAttempts 回で見つからなければ ExhaustedAttemptsError を返します。
func (g *Generator) GenerateBBox(width, height int, opts BBoxMaskOptions) (*Result, error) {
	if err := opts.validate(width, height); err != nil {
		return nil, err
	}
	angle := distuv.Uniform{Min: opts.MinAngle, Max: opts.MaxAngle, Src: g.src}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		spec := g.sampleBBox(width, height, opts, angle)

		if PolylineInBounds(BoundaryPolyline(spec, g.boundaryStep), width, height) {
			return &Result{Mask: Rasterize(spec, width, height), Ellipse: spec, Attempts: attempt}, nil
		}
		g.logger.Debug("楕円候補を棄却しました", "attempt", attempt, "reason", "out_of_bounds",
			"center_x", spec.CenterX, "center_y", spec.CenterY,
			"semi_major", spec.SemiMajor, "semi_minor", spec.SemiMinor, "angle", spec.AngleDeg)
	}
	return nil, &ExhaustedAttemptsError{Attempts: opts.MaxAttempts}
}

func (g *Generator) sampleBBox(width, height int, opts BBoxMaskOptions, angle distuv.Uniform) domain.EllipseSpec {
	bw := opts.MinWidth + g.rng.IntN(opts.MaxWidth-opts.MinWidth+1)
	bh := opts.MinHeight + g.rng.IntN(opts.MaxHeight-opts.MinHeight+1)
	x1 := g.rng.IntN(width - bw + 1)
	y1 := g.rng.IntN(height - bh + 1)
	deg := angle.Rand()

	// 長軸を x 方向にそろえるため、縦長の矩形は 90° 回して扱うのだ
	a, b := bw/2, bh/2
	if b > a {
		a, b = b, a
		deg += 90
	}
	return domain.EllipseSpec{
		CenterX:      x1 + bw/2,
		CenterY:      y1 + bh/2,
		SemiMajor:    a,
		SemiMinor:    b,
		AngleDeg:     NormalizeAngle(deg),
		Scale:        float64(2*a) / float64(min(width, height)),
		Eccentricity: math.Sqrt(1 - float64(b*b)/float64(a*a)),
	}
}

// GenerateBatch は width×height のマスクを n 枚作り、dir に mask_1.png, mask_2.png, ... として保存します。
// 途中で失敗した場合はそれまでに保存したパスとエラーを返します。
func (g *Generator) GenerateBatch(dir string, width, height int, opts BBoxMaskOptions, n int) ([]string, error) {
	if n < 1 {
		return nil, &InvalidParametersError{Field: "Count", Reason: fmt.Sprintf("1 以上が必要です: %d", n)}
	}
	if err := opts.validate(width, height); err != nil {
		return nil, err
	}

	paths := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		res, err := g.GenerateBBox(width, height, opts)
		if err != nil {
			return paths, err
		}

		path := filepath.Join(dir, fmt.Sprintf("mask_%d.png", i))
		if err := imgutil.Save(path, res.Mask); err != nil {
			return paths, fmt.Errorf("マスクの保存に失敗しました: %w", err)
		}
		paths = append(paths, path)

		g.logger.Info("マスクを保存しました", "index", i, "path", path, "attempts", res.Attempts)
	}
	return paths, nil
}
