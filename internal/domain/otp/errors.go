package otp

import "errors"

var (
	ErrNotFound = errors.New("invalid OTP")
	ErrExpired  = errors.New("OTP expired")
)
