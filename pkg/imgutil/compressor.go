package imgutil

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// CompressToJPEG は画像データ（PNG, GIF, JPEG, BMP, TIFF）をJPEG形式に圧縮します。
// マスクのように値を厳密に保つ必要がある画像には使わないでください。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
