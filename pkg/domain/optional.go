package domain

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Optional は「値が指定されているか」を明示的に保持する型です。
// ゼロ値は未指定を表し、0 や 0.0 といった正当な値と区別できます。
type Optional[T any] struct {
	value T
	set   bool
}

// Some は指定済みの Optional を返します。
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None は未指定の Optional を返します。
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get は値と、値が指定されているかどうかを返します。
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse は未指定の場合に fallback を返すのだ。
func (o Optional[T]) OrElse(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}

// MarshalJSON は未指定を null として出力します。
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON は null を未指定、それ以外を指定済みとして読み込みます。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// UnmarshalYAML はキーが存在すれば指定済みとして読み込みます。
// null（~）の場合、yaml.v3 はこのメソッドを呼ばずにゼロ値（未指定）のまま残します。
func (o *Optional[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML は未指定を null として出力します。
func (o Optional[T]) MarshalYAML() (any, error) {
	if !o.set {
		return nil, nil
	}
	return o.value, nil
}
