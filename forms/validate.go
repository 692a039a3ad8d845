package forms

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
)

// Fixed messages shown to the user
const (
	MsgInvalidResetToken = "Invalid reset token"
	MsgPasswordMismatch  = "Passwords do not match"
	MsgPasswordTooShort  = "Password must be at least 8 characters long"
	MsgInvalidEmail      = "Please enter a valid email address"
)

// ValidationError is the first problem found in a form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Field == "Token" {
		return apperrors.ErrInvalidResetToken
	}
	return apperrors.ErrValidation
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// validate reports a single problem. A missing reset token wins, then missing or malformed
// fields, then a confirmation mismatch, then a short password.
func validate(form any) error {
	err := structValidator.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !apperrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate %T: %w", form, err)
	}

	sort.SliceStable(fieldErrs, func(i, j int) bool {
		return rank(fieldErrs[i]) < rank(fieldErrs[j])
	})
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.StructField(), Message: message(fe)}
}

func rank(fe validator.FieldError) int {
	switch {
	case fe.StructField() == "Token":
		return 0
	case fe.Tag() == "required", fe.Tag() == "email":
		return 1
	case fe.Tag() == "eqfield":
		return 2
	default:
		return 3
	}
}

func message(fe validator.FieldError) string {
	switch {
	case fe.StructField() == "Token":
		return MsgInvalidResetToken
	case fe.Tag() == "required":
		return fe.Field() + " is required"
	case fe.Tag() == "email":
		return MsgInvalidEmail
	case fe.Tag() == "eqfield":
		return MsgPasswordMismatch
	case fe.Tag() == "min":
		return MsgPasswordTooShort
	}
	return fe.Field() + " is invalid"
}
