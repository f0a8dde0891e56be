package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Load はファイルから画像をデコードします。
func Load(path string) (image.Image, error) {
	return imaging.Open(path)
}

// LosslessFormat は拡張子から可逆な保存形式を判定します。JPEG など非可逆形式はエラーです。
func LosslessFormat(path string) (imaging.Format, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return f, err
	}
	if f == imaging.JPEG {
		return f, fmt.Errorf("非可逆形式は使用できません: %s", filepath.Ext(path))
	}
	return f, nil
}

// Save は拡張子に応じた可逆形式で画像を保存します。親ディレクトリがなければ作成します。
func Save(path string, img image.Image) error {
	format, err := LosslessFormat(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imaging.Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodePNG は画像を PNG のバイト列にエンコードします。
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SamePath は2つのパスが同じファイルを指しているかを返します。
// パスが一致しない場合でも、既存ファイル同士はシンボリックリンクやハードリンクを考慮して比較します。
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}

	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

// CopyFile は src を dst にバイト単位でそのまま複製します。
// 同じファイルを指している場合は何もしないので、元画像が壊れることはありません。
func CopyFile(src, dst string) error {
	if SamePath(src, dst) {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(dst, in); err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode().Perm())
}

// WriteFileAtomic は r の内容を一時ファイルへ書き込んでから dst にリネームします。
func WriteFileAtomic(dst string, r io.Reader) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
