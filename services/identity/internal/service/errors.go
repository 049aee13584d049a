package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
)

func ErrEmailAlreadyRegistered() *apperr.Error {
	return apperr.New(apperr.KindEmailAlreadyRegistered, "Email is already registered.", http.StatusBadRequest)
}

func ErrUserNotFound(status int) *apperr.Error {
	return apperr.New(apperr.KindUserNotFound, "User not found.", status)
}

func ErrUserNotVerified() *apperr.Error {
	return apperr.New(apperr.KindUserNotVerified, "Email address has not been verified.", http.StatusUnauthorized)
}

func ErrAccountLocked(until time.Time) *apperr.Error {
	return apperr.New(apperr.KindAccountLocked,
		fmt.Sprintf("Account locked until %s", until.UTC().Format("2006-01-02 15:04:05Z")),
		http.StatusLocked)
}

func ErrInvalidPassword() *apperr.Error {
	return apperr.New(apperr.KindInvalidPassword, "Invalid email or password.", http.StatusUnauthorized)
}

func ErrInvalidOrExpiredToken() *apperr.Error {
	return apperr.New(apperr.KindInvalidOrExpiredToken, "Invalid or expired refresh token.", http.StatusUnauthorized)
}

func ErrInvalidRefreshToken() *apperr.Error {
	return apperr.New(apperr.KindInvalidRefreshToken, "Invalid refresh token.", http.StatusUnauthorized)
}

func ErrInvalidOrExpiredCode() *apperr.Error {
	return apperr.New(apperr.KindInvalidOrExpiredCode, "Invalid or expired verification code.", http.StatusUnauthorized)
}

func ErrUserAlreadyVerified() *apperr.Error {
	return apperr.New(apperr.KindUserAlreadyVerified, "User is already verified.", http.StatusBadRequest)
}

func ErrVerificationCodeRecentlySent() *apperr.Error {
	return apperr.New(apperr.KindVerificationCodeRecentlySent,
		"A verification code was sent recently. Please wait before requesting another.",
		http.StatusTooManyRequests)
}

func ErrEmailSendingFailed(cause error) *apperr.Error {
	return apperr.Wrap(apperr.KindEmailSendingFailed, "Failed to send verification email.", http.StatusInternalServerError, cause)
}
