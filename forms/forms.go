// Package forms decodes and validates the authentication forms before anything reaches the API.
package forms

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/coffee-shop-web/apiclient"
)

const MinPasswordLength = 8

// Form field names as posted by the pages
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldRememberMe      = "rememberMe"
	FieldToken           = "token"
)

type LoginForm struct {
	Email      string `validate:"required,email" label:"Email"`
	Password   string `validate:"required" label:"Password"`
	RememberMe bool
}

func DecodeLogin(v url.Values) LoginForm {
	return LoginForm{
		Email:      strings.TrimSpace(v.Get(FieldEmail)),
		Password:   v.Get(FieldPassword),
		RememberMe: checked(v.Get(FieldRememberMe)),
	}
}

func (f LoginForm) Validate() error {
	return validate(f)
}

type RegisterForm struct {
	Name            string `validate:"required" label:"Name"`
	Email           string `validate:"required,email" label:"Email"`
	Password        string `validate:"required,min=8" label:"Password"`
	ConfirmPassword string `validate:"required,eqfield=Password" label:"Confirm Password"`
}

func DecodeRegister(v url.Values) RegisterForm {
	return RegisterForm{
		Name:            strings.TrimSpace(v.Get(FieldName)),
		Email:           strings.TrimSpace(v.Get(FieldEmail)),
		Password:        v.Get(FieldPassword),
		ConfirmPassword: v.Get(FieldConfirmPassword),
	}
}

func (f RegisterForm) Validate() error {
	return validate(f)
}

// Request builds the registration payload. The confirmation never leaves the form.
func (f RegisterForm) Request() apiclient.RegisterRequest {
	return apiclient.RegisterRequest{Name: f.Name, Email: f.Email, Password: f.Password}
}

type ForgotPasswordForm struct {
	Email string `validate:"required,email" label:"Email"`
}

func DecodeForgotPassword(v url.Values) ForgotPasswordForm {
	return ForgotPasswordForm{Email: strings.TrimSpace(v.Get(FieldEmail))}
}

func (f ForgotPasswordForm) Validate() error {
	return validate(f)
}

// ResetPasswordForm carries the reset token from the emailed link alongside the new password.
type ResetPasswordForm struct {
	Token           string `validate:"required" label:"Token"`
	Password        string `validate:"required,min=8" label:"New Password"`
	ConfirmPassword string `validate:"required,eqfield=Password" label:"Confirm New Password"`
}

func DecodeResetPassword(v url.Values) ResetPasswordForm {
	return ResetPasswordForm{
		Token:           strings.TrimSpace(v.Get(FieldToken)),
		Password:        v.Get(FieldPassword),
		ConfirmPassword: v.Get(FieldConfirmPassword),
	}
}

func (f ResetPasswordForm) Validate() error {
	return validate(f)
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
