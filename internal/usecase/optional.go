package usecase

import (
	"encoding/json"
	"errors"
)

var errNullValue = errors.New("null is not allowed")

// Optionalは「送られてきたか」を値と一緒に持つ。
// PATCHで送られた項目だけを更新するために使う。
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// 未送信ならnil
func (o Optional[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// キーがあるときだけ呼ばれる。nullは受け付けない。
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return errNullValue
	}
	if err := json.Unmarshal(b, &o.value); err != nil {
		return err
	}
	o.set = true
	return nil
}
