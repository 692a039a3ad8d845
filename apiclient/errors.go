package apiclient

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
)

// Error describes a failed call to the remote API: a non-2xx response or a transport failure.
type Error struct {
	Method     string
	Path       string
	StatusCode int    // zero for transport failures
	Message    string // server provided message, may be empty
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{apperrors.ErrRequestFailed, e.Err}
	}
	return []error{apperrors.ErrRequestFailed}
}

// MessageOr returns the server provided message of err, or fallback when there is none.
func MessageOr(err error, fallback string) string {
	var apiErr *Error
	if apperrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func messageFromBody(body []byte) string {
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	if detail, ok := eb.Detail.(string); ok {
		return detail
	}
	return ""
}
