package maskgen

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/anomaly-image-kit/pkg/domain"
	"github.com/shouni/anomaly-image-kit/pkg/imgutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSourcePNG はテスト用の元画像（グラデーション）を書き出すヘルパーなのだ。
func writeSourcePNG(t *testing.T, path string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func circleParams() domain.MaskParameters {
	return domain.MaskParameters{
		Scale:        domain.Some(0.2),
		Eccentricity: domain.Some(0.0),
		CenterX:      domain.Some(50),
		CenterY:      domain.Some(50),
		AngleDeg:     domain.Some(0.0),
		MaxAttempts:  1,
	}
}

func TestGenerator_GenerateFiles(t *testing.T) {
	t.Run("マスクと元画像の複製が保存される", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "in.png")
		original := writeSourcePNG(t, input, 100, 100)
		paths := FilePaths{
			Input:       input,
			OutputImage: filepath.Join(dir, "out", "source_images", "0.png"),
			OutputMask:  filepath.Join(dir, "out", "mask_images", "0.png"),
		}

		res, err := NewSeededGenerator(0).GenerateFiles(paths, circleParams())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Attempts)

		copied, err := os.ReadFile(paths.OutputImage)
		require.NoError(t, err)
		assert.Equal(t, original, copied, "複製はバイト単位で一致するべきなのだ")

		mask, err := imgutil.Load(paths.OutputMask)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 100, 100), mask.Bounds())
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				g := color.GrayModel.Convert(mask.At(x, y)).(color.Gray)
				require.True(t, g.Y == MaskOn || g.Y == MaskOff)
				require.Equal(t, res.Mask.GrayAt(x, y).Y, g.Y)
			}
		}
	})

	t.Run("入力と出力が同じパスでも元画像は壊れない", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "in.png")
		original := writeSourcePNG(t, input, 100, 100)
		paths := FilePaths{
			Input:       input,
			OutputImage: filepath.Join(dir, ".", "in.png"),
			OutputMask:  filepath.Join(dir, "mask.png"),
		}

		_, err := NewSeededGenerator(0).GenerateFiles(paths, circleParams())
		require.NoError(t, err)

		after, err := os.ReadFile(input)
		require.NoError(t, err)
		assert.Equal(t, original, after)
	})

	t.Run("デコードできない入力は InvalidSourceError", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "broken.png")
		require.NoError(t, os.WriteFile(input, []byte("this is not an image"), 0o644))
		maskPath := filepath.Join(dir, "mask.png")

		_, err := NewSeededGenerator(0).GenerateFiles(FilePaths{Input: input, OutputImage: input, OutputMask: maskPath}, circleParams())

		require.ErrorIs(t, err, ErrInvalidSource)
		var ise *InvalidSourceError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, input, ise.Path)
		assert.NoFileExists(t, maskPath)
	})

	t.Run("存在しない入力も InvalidSourceError", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewSeededGenerator(0).GenerateFiles(FilePaths{
			Input:       filepath.Join(dir, "missing.png"),
			OutputImage: filepath.Join(dir, "copy.png"),
			OutputMask:  filepath.Join(dir, "mask.png"),
		}, circleParams())
		assert.ErrorIs(t, err, ErrInvalidSource)
	})

	t.Run("非可逆形式のマスク出力は拒否される", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "in.png")
		writeSourcePNG(t, input, 100, 100)
		maskPath := filepath.Join(dir, "mask.jpg")

		_, err := NewSeededGenerator(0).GenerateFiles(FilePaths{Input: input, OutputImage: input, OutputMask: maskPath}, circleParams())

		require.ErrorIs(t, err, ErrInvalidParameters)
		assert.NoFileExists(t, maskPath)
	})

	t.Run("生成に失敗した場合は何も書き込まない", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "in.png")
		writeSourcePNG(t, input, 10, 10)
		paths := FilePaths{
			Input:       input,
			OutputImage: filepath.Join(dir, "copy.png"),
			OutputMask:  filepath.Join(dir, "mask.png"),
		}
		params := domain.MaskParameters{
			Scale:        domain.Some(1.0),
			Eccentricity: domain.Some(0.0),
			CenterX:      domain.Some(0),
			CenterY:      domain.Some(0),
			AngleDeg:     domain.Some(0.0),
			MaxAttempts:  3,
		}

		_, err := NewSeededGenerator(0).GenerateFiles(paths, params)

		require.ErrorIs(t, err, ErrOutOfBounds)
		assert.NoFileExists(t, paths.OutputMask)
		assert.NoFileExists(t, paths.OutputImage)
	})
}
