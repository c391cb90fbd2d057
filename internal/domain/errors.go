package domain

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSecondFactor = errors.New("invalid second factor")
	ErrUserDisabled        = errors.New("user disabled")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired or revoked")
	ErrFactorNotEnrolled   = errors.New("factor not enrolled")
)
