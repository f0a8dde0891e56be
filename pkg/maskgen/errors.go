package maskgen

import (
	"errors"
	"fmt"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
)

// errors.Is で種別を判定するためのセンチネルです。
var (
	ErrInvalidSource     = errors.New("invalid source image")
	ErrInvalidParameters = errors.New("invalid mask parameters")
	ErrOutOfBounds       = errors.New("ellipse exceeds image bounds")
	ErrExhaustedAttempts = errors.New("mask generation attempts exhausted")
)

// InvalidSourceError は元画像をデコードできない、または面積がゼロの場合のエラーです。
type InvalidSourceError struct {
	Path string
	Err  error
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("入力画像を読み込めません (%s): %v", e.Path, e.Err)
}

func (e *InvalidSourceError) Unwrap() error { return e.Err }

func (e *InvalidSourceError) Is(target error) bool { return target == ErrInvalidSource }

// InvalidParametersError はパラメータが値域外、または決定的に生成不能な場合のエラーです。
type InvalidParametersError struct {
	Field  string
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParameters, e.Field, e.Reason)
}

func (e *InvalidParametersError) Is(target error) bool { return target == ErrInvalidParameters }

// OutOfBoundsError は境界内モードで楕円が画像からはみ出し、再試行が許されない場合のエラーです。
// 再試行が無効か、5つの幾何パラメータがすべて固定されているときに返ります。
type OutOfBoundsError struct {
	Ellipse  domain.EllipseSpec
	Width    int
	Height   int
	Attempt  int
	AllFixed bool
}

func (e *OutOfBoundsError) Error() string {
	if e.AllFixed {
		return fmt.Sprintf("指定されたパラメータではマスクが画像 (%dx%d) の境界からはみ出します: center=(%d,%d) axes=(%d,%d) angle=%.2f",
			e.Width, e.Height, e.Ellipse.CenterX, e.Ellipse.CenterY, e.Ellipse.SemiMajor, e.Ellipse.SemiMinor, e.Ellipse.AngleDeg)
	}
	return fmt.Sprintf("マスクが画像 (%dx%d) の境界からはみ出します (attempt %d): center=(%d,%d) axes=(%d,%d) angle=%.2f",
		e.Width, e.Height, e.Attempt, e.Ellipse.CenterX, e.Ellipse.CenterY, e.Ellipse.SemiMajor, e.Ellipse.SemiMinor, e.Ellipse.AngleDeg)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// ExhaustedAttemptsError は最大試行回数内に境界内の楕円が見つからなかった場合のエラーです。
type ExhaustedAttemptsError struct {
	Attempts int
}

func (e *ExhaustedAttemptsError) Error() string {
	return fmt.Sprintf("最大試行回数 (%d) 内に有効なマスクを生成できませんでした", e.Attempts)
}

func (e *ExhaustedAttemptsError) Is(target error) bool { return target == ErrExhaustedAttempts }
