package usecase

import (
	"errors"
	"fmt"
)

// エラーの種類。handlerでHTTPステータスに変換する。
type ErrorKind string

const (
	KindNotFound ErrorKind = "NOT_FOUND"
	//入力不正と、DBの制約違反など書き込みの失敗
	KindInvalid  ErrorKind = "BAD_REQUEST"
	KindInternal ErrorKind = "INTERNAL"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewNotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewInvalid(message string, err error) error {
	return &Error{Kind: KindInvalid, Message: message, Err: err}
}

func NewInternal(err error) error {
	return &Error{Kind: KindInternal, Message: "db error", Err: err}
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// KindOfは種類だけ取り出す（usecaseのErrorでなければINTERNAL）
func KindOf(err error) ErrorKind {
	if ue, ok := AsError(err); ok {
		return ue.Kind
	}
	return KindInternal
}
