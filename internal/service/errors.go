package service

import (
	"errors"
	"strings"
)

var (
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrEmailNotVerified gates signup completion on a prior successful OTP
	// verification for the same email.
	ErrEmailNotVerified = errors.New("email not verified; verify your email first")

	// ErrDeliveryFailure wraps outbound email transport errors. Whatever row
	// triggered the send has already been compensated for by the caller.
	ErrDeliveryFailure = errors.New("failed to send email")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// normalizeEmail folds an address to its canonical lowercase form. Every
// service entry point that receives an email applies it before touching
// storage, so all casings a client types map onto one account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
