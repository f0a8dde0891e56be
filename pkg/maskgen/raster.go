package maskgen

import (
	"image"
	"image/color"
	"math"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"golang.org/x/image/vector"
)

const (
	MaskOn  uint8 = 255
	MaskOff uint8 = 0

	// coverageThreshold 以上覆われた画素を楕円の内側とみなします。
	coverageThreshold = 0x80
)

// Rasterize は楕円の内部を 255、外部を 0 とした width×height の単一チャンネルマスクを返します。
// 画像外にはみ出した部分は切り取られます。軸のどちらかが 0 の楕円は面積を持たないので、
// 中心を通る線分（両方 0 なら中心の1画素）を描きます。
func Rasterize(e domain.EllipseSpec, width, height int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	if e.SemiMajor <= 0 || e.SemiMinor <= 0 {
		strokePolyline(mask, ellipsePoints(e, e.AngleDeg, fillStep))
		return mask
	}

	// 画素 (x, y) の中心は (x+0.5, y+0.5) なのでポリゴン全体をずらすのだ
	z := vector.NewRasterizer(width, height)
	pts := ellipsePoints(e, e.AngleDeg, fillStep)
	z.MoveTo(float32(pts[0][0]+0.5), float32(pts[0][1]+0.5))
	for _, p := range pts[1:] {
		z.LineTo(float32(p[0]+0.5), float32(p[1]+0.5))
	}
	z.ClosePath()

	coverage := image.NewAlpha(mask.Bounds())
	z.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})

	for i, v := range coverage.Pix {
		if v >= coverageThreshold {
			mask.Pix[i] = MaskOn
		}
	}
	return mask
}

// strokePolyline は折れ線が通る画素を 1 画素幅で塗ります。
func strokePolyline(mask *image.Gray, pts [][2]float64) {
	set := func(x, y float64) {
		p := image.Pt(int(math.RoundToEven(x)), int(math.RoundToEven(y)))
		if p.In(mask.Rect) {
			mask.SetGray(p.X, p.Y, color.Gray{Y: MaskOn})
		}
	}

	set(pts[0][0], pts[0][1])
	for i := 1; i < len(pts); i++ {
		x0, y0 := pts[i-1][0], pts[i-1][1]
		dx, dy := pts[i][0]-x0, pts[i][1]-y0
		n := int(math.Ceil(max(math.Abs(dx), math.Abs(dy))))
		for k := 1; k <= n; k++ {
			t := float64(k) / float64(n)
			set(x0+dx*t, y0+dy*t)
		}
		set(pts[i][0], pts[i][1])
	}
}
