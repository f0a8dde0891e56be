package adapters

import (
	"context"
	"encoding/json"
)

// mockJSONClient は JSONClient のテスト用モックなのだ。
type mockJSONClient struct {
	fetchFunc func(ctx context.Context, url string, v any) error
	postFunc  func(ctx context.Context, url string, data any) ([]byte, error)

	lastURL     string
	lastPayload any
}

func (m *mockJSONClient) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	m.lastURL = url
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url, v)
	}
	return nil
}

func (m *mockJSONClient) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	m.lastURL = url
	m.lastPayload = data
	if m.postFunc != nil {
		return m.postFunc(ctx, url, data)
	}
	return []byte("{}"), nil
}

// decodeInto は JSON 文字列を v に読み込むヘルパーなのだ。
func decodeInto(raw string, v any) error {
	return json.Unmarshal([]byte(raw), v)
}
