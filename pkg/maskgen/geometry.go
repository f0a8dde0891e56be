package maskgen

import (
	"image"
	"math"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
)

const (
	// DefaultBoundaryStep は境界判定に使う折れ線の角度刻み（度）です。
	DefaultBoundaryStep = 5
	// fillStep は塗りつぶし用ポリゴンの角度刻み（度）です。
	fillStep = 1
)

// SemiAxes はスケールと離心率から長半径・短半径（ピクセル、切り捨て）を計算します。
// 長半径は短辺の半分に scale を掛けた値です。
func SemiAxes(scale, eccentricity float64, width, height int) (int, int) {
	a := int(scale * float64(min(width, height)) / 2)
	b := int(float64(a) * math.Sqrt(1-eccentricity*eccentricity))
	return a, b
}

// NormalizeAngle は角度を [0, 360) に正規化します。
func NormalizeAngle(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	if m >= 360 {
		m = 0
	}
	return m
}

// BoundaryPolyline は楕円の境界を stepDeg 刻みで折れ線近似し、整数ピクセル座標で返します。
// 回転角は整数の度に切り捨てます。座標は偶数丸めで整数化し、連続する重複点は取り除きます。
// 塗りつぶしには小数の角度をそのまま使うので、境界判定とは最大 1° ずれることがあります。
func BoundaryPolyline(e domain.EllipseSpec, stepDeg int) []image.Point {
	if stepDeg <= 0 {
		stepDeg = DefaultBoundaryStep
	}
	pts := make([]image.Point, 0, 360/stepDeg+2)
	for _, p := range ellipsePoints(e, math.Trunc(e.AngleDeg), stepDeg) {
		q := image.Pt(int(math.RoundToEven(p[0])), int(math.RoundToEven(p[1])))
		if n := len(pts); n > 0 && pts[n-1] == q {
			continue
		}
		pts = append(pts, q)
	}
	return pts
}

// PolylineInBounds はすべての点が [0,width) × [0,height) に収まっているかを返します。
func PolylineInBounds(pts []image.Point, width, height int) bool {
	bounds := image.Rect(0, 0, width, height)
	for _, p := range pts {
		if !p.In(bounds) {
			return false
		}
	}
	return true
}

// ellipsePoints は angleDeg だけ回転した境界点を浮動小数のまま返します。終点 360° を必ず含みます。
func ellipsePoints(e domain.EllipseSpec, angleDeg float64, stepDeg int) [][2]float64 {
	rad := angleDeg * math.Pi / 180
	cosA, sinA := math.Cos(rad), math.Sin(rad)
	a, b := float64(e.SemiMajor), float64(e.SemiMinor)
	cx, cy := float64(e.CenterX), float64(e.CenterY)

	pts := make([][2]float64, 0, 360/stepDeg+2)
	for deg := 0; deg < 360+stepDeg; deg += stepDeg {
		t := float64(min(deg, 360)) * math.Pi / 180
		x, y := a*math.Cos(t), b*math.Sin(t)
		pts = append(pts, [2]float64{
			cx + x*cosA - y*sinA,
			cy + x*sinA + y*cosA,
		})
	}
	return pts
}
