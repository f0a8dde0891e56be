package domain

// MaskParameters は楕円マスク生成の要求です。
// 未指定 (None) のフィールドは試行ごとにランダムに再サンプリングされ、
// 指定済みのフィールドは全試行を通して固定されます。
type MaskParameters struct {
	Scale        Optional[float64] `json:"scale" yaml:"scale"`               // (0, 1]。未指定なら [0.1, 1.0)
	Eccentricity Optional[float64] `json:"eccentricity" yaml:"eccentricity"` // [0, 1)。未指定なら [0.0, 0.99)
	CenterX      Optional[int]     `json:"center_x" yaml:"center_x"`
	CenterY      Optional[int]     `json:"center_y" yaml:"center_y"`
	AngleDeg     Optional[float64] `json:"angle" yaml:"angle"` // 未指定なら [0, 360)

	AllowOutOfBounds bool `json:"allow_out_of_bounds" yaml:"allow_out_of_bounds"`
	RetryOnFailure   bool `json:"retry_on_failure" yaml:"retry_on_failure"`
	MaxAttempts      int  `json:"max_attempts" yaml:"max_attempts"`
}

// DefaultMaskParameters はバッチ生成で使う既定値を返します。
// スケールのみ 0.1 に固定し、残りの幾何パラメータはランダムです。
func DefaultMaskParameters() MaskParameters {
	return MaskParameters{
		Scale:            Some(0.1),
		AllowOutOfBounds: false,
		RetryOnFailure:   true,
		MaxAttempts:      100,
	}
}

// AllFixed は5つの幾何パラメータがすべて呼び出し側で指定されているかを返します。
// この場合、候補は決定的なので再試行しても結果は変わりません。
func (p MaskParameters) AllFixed() bool {
	return p.Scale.IsSet() &&
		p.Eccentricity.IsSet() &&
		p.CenterX.IsSet() &&
		p.CenterY.IsSet() &&
		p.AngleDeg.IsSet()
}

// EllipseSpec は1回の試行で確定した楕円の候補です。
type EllipseSpec struct {
	CenterX   int
	CenterY   int
	SemiMajor int
	SemiMinor int
	AngleDeg  float64 // [0, 360) に正規化済み

	// 診断用にサンプリング結果を保持しておくのだ
	Scale        float64
	Eccentricity float64
}
