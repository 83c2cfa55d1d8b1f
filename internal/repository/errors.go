package repository

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// 書き込み・commitの失敗はすべてこの型で返す。
// 制約の種類までは解釈しない。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	ok := errors.As(err, &se)
	return se, ok
}
