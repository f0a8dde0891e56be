package maskgen

import (
	"errors"
	"fmt"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/imgutil"
)

var errZeroArea = errors.New("画像の面積がゼロです")

// FilePaths は GenerateFiles の入出力パスです。
type FilePaths struct {
	Input       string // 元画像
	OutputImage string // 元画像の複製先。Input と同じなら複製しない
	OutputMask  string // マスクの保存先（png, bmp, tif, gif）
}

// GenerateFiles は元画像を読み込んでマスクを生成し、マスクと元画像の複製を保存します。
// 失敗した場合、マスクは書き込まれません。
func (g *Generator) GenerateFiles(paths FilePaths, params domain.MaskParameters) (*Result, error) {
	if _, err := imgutil.LosslessFormat(paths.OutputMask); err != nil {
		return nil, &InvalidParametersError{Field: "OutputMask", Reason: err.Error()}
	}

	img, err := imgutil.Load(paths.Input)
	if err != nil {
		return nil, &InvalidSourceError{Path: paths.Input, Err: err}
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, &InvalidSourceError{Path: paths.Input, Err: errZeroArea}
	}

	res, err := g.Generate(bounds.Dx(), bounds.Dy(), params)
	if err != nil {
		return nil, err
	}

	if err := imgutil.Save(paths.OutputMask, res.Mask); err != nil {
		return nil, fmt.Errorf("マスクの保存に失敗しました: %w", err)
	}
	if err := imgutil.CopyFile(paths.Input, paths.OutputImage); err != nil {
		return nil, fmt.Errorf("元画像の複製に失敗しました: %w", err)
	}

	g.logger.Info("マスクを生成しました",
		"input", paths.Input,
		"mask", paths.OutputMask,
		"attempts", res.Attempts,
		"center_x", res.Ellipse.CenterX,
		"center_y", res.Ellipse.CenterY,
		"semi_major", res.Ellipse.SemiMajor,
		"semi_minor", res.Ellipse.SemiMinor,
	)
	return res, nil
}
