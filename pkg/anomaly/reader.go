package anomaly

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// SourceReader は入力画像を開きます。remoteio.InputReader をそのまま渡せば gs:// も扱えます。
type SourceReader interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

var _ SourceReader = (remoteio.InputReader)(nil)

// Source は入力画像の列挙と読み込みを行います。
type Source interface {
	SourceReader
	// List は処理対象の URI を決まった順序で fn に渡します。
	List(ctx context.Context, uri string, fn func(string) error) error
}

// LocalReader はローカルディレクトリを Source として扱います。
type LocalReader struct{}

var _ Source = LocalReader{}

func (LocalReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(uri)
}

// List は uri 直下の通常ファイルを名前順に fn へ渡します。uri がファイルならそれ自身を渡します。
func (LocalReader) List(ctx context.Context, uri string, fn func(string) error) error {
	info, err := os.Stat(uri)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fn(uri)
	}

	entries, err := os.ReadDir(uri)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			continue
		}
		if err := fn(filepath.Join(uri, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// URIListSource は明示された URI の一覧を reader で読み込みます。
// gs:// のようにディレクトリ列挙ができない入力で使うのだ。
type URIListSource struct {
	reader SourceReader
	uris   []string
}

// NewURIListSource は URIListSource を生成します。
func NewURIListSource(reader SourceReader, uris []string) (*URIListSource, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	return &URIListSource{reader: reader, uris: append([]string(nil), uris...)}, nil
}

func (s *URIListSource) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	return s.reader.Open(ctx, uri)
}

// List は一覧をそのままの順序で渡します。uri は使いません。
func (s *URIListSource) List(ctx context.Context, _ string, fn func(string) error) error {
	for _, u := range s.uris {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}
