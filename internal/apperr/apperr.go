// Package apperr описывает виды ошибок, на которые умеет отвечать HTTP-слой.
// Сервисы возвращают *Error, helpers.Error переводит вид в код ответа.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindNotFound
	KindTokenInvalid
	KindTokenExpired
	KindInvalidResetToken
	KindDelivery
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidResetToken:
		return "invalid_reset_token"
	case KindDelivery:
		return "delivery"
	case KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Status возвращает HTTP-код для вида ошибки.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInvalidResetToken:
		return http.StatusBadRequest
	case KindAuthentication, KindTokenInvalid, KindTokenExpired:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Exposed: можно ли показать Message клиенту как есть.
func (k Kind) Exposed() bool {
	switch k {
	case KindInternal, KindPersistence:
		return false
	default:
		return true
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error     { return New(KindValidation, msg) }
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg) }

func Persistence(msg string, err error) *Error {
	return Wrap(KindPersistence, msg, err)
}

// KindOf возвращает вид первой *Error в цепочке; для остальных ошибок KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// As — errors.As для *Error.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
