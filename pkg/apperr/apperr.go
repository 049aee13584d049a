// Package apperr defines business errors: expected, client-caused failures
// that carry their own HTTP status and a user-safe message.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation                   Kind = "Validation"
	KindNotFound                     Kind = "NotFound"
	KindForbidden                    Kind = "Forbidden"
	KindUnauthorized                 Kind = "Unauthorized"
	KindConflict                     Kind = "Conflict"
	KindRateLimited                  Kind = "RateLimited"
	KindEmailAlreadyRegistered       Kind = "EmailAlreadyRegistered"
	KindUserNotFound                 Kind = "UserNotFound"
	KindUserNotVerified              Kind = "UserNotVerified"
	KindAccountLocked                Kind = "AccountLocked"
	KindInvalidPassword              Kind = "InvalidPassword"
	KindInvalidOrExpiredToken        Kind = "InvalidOrExpiredToken"
	KindInvalidRefreshToken          Kind = "InvalidRefreshToken"
	KindInvalidOrExpiredCode         Kind = "InvalidOrExpiredCode"
	KindUserAlreadyVerified          Kind = "UserAlreadyVerified"
	KindVerificationCodeRecentlySent Kind = "VerificationCodeRecentlySent"
	KindEmailSendingFailed           Kind = "EmailSendingFailed"
)

type Error struct {
	Kind    Kind
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on Kind so callers can compare against the sentinel constructors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string, status int) *Error {
	return &Error{Kind: kind, Message: message, Status: status}
}

// Wrap attaches cause for logging; the message shown to clients is unchanged.
func Wrap(kind Kind, message string, status int, cause error) *Error {
	return &Error{Kind: kind, Message: message, Status: status, cause: cause}
}

// As returns the business error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

func Validation(message string) *Error {
	return New(KindValidation, message, http.StatusBadRequest)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, http.StatusNotFound)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message, http.StatusForbidden)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message, http.StatusUnauthorized)
}

func Conflict(message string) *Error {
	return New(KindConflict, message, http.StatusConflict)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, message, http.StatusTooManyRequests)
}
