package errors

import (
	"errors"
	"fmt"
)

// Common error types for the coffee shop frontend
var (
	// Remote API errors
	ErrRequestFailed  = errors.New("request failed")
	ErrInvalidBaseURL = errors.New("invalid api base url")

	// Session errors
	ErrNoAccessToken     = errors.New("no access token")
	ErrRequestInFlight   = errors.New("a request is already in progress")
	ErrSessionNotStarted = errors.New("session not started")

	// Form errors
	ErrValidation        = errors.New("validation failed")
	ErrInvalidResetToken = errors.New("invalid reset token")

	// Token storage errors
	ErrInvalidKey = errors.New("invalid storage key")

	// Stub API errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")

	// Page access errors
	ErrForbidden = errors.New("forbidden")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
