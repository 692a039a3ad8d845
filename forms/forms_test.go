package forms_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/coffee-shop-web/forms"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/stretchr/testify/require"
)

func requireMessage(t *testing.T, err error, want string) {
	t.Helper()
	require.Error(t, err)
	var verr *forms.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, want, verr.Message)
}

func TestRegisterForm_Validate(t *testing.T) {
	tests := []struct {
		name    string
		form    forms.RegisterForm
		message string
	}{
		{
			name:    "valid",
			form:    forms.RegisterForm{Name: "Ada", Email: "a@b.com", Password: "secret12", ConfirmPassword: "secret12"},
			message: "",
		},
		{
			name:    "mismatch is reported before length",
			form:    forms.RegisterForm{Name: "Ada", Email: "a@b.com", Password: "short", ConfirmPassword: "other"},
			message: forms.MsgPasswordMismatch,
		},
		{
			name:    "mismatch with long passwords",
			form:    forms.RegisterForm{Name: "Ada", Email: "a@b.com", Password: "secret12", ConfirmPassword: "secret13"},
			message: forms.MsgPasswordMismatch,
		},
		{
			name:    "short password",
			form:    forms.RegisterForm{Name: "Ada", Email: "a@b.com", Password: "short", ConfirmPassword: "short"},
			message: forms.MsgPasswordTooShort,
		},
		{
			name:    "missing name",
			form:    forms.RegisterForm{Email: "a@b.com", Password: "secret12", ConfirmPassword: "secret12"},
			message: "Name is required",
		},
		{
			name:    "bad email",
			form:    forms.RegisterForm{Name: "Ada", Email: "not-an-email", Password: "secret12", ConfirmPassword: "secret12"},
			message: forms.MsgInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.message == "" {
				require.NoError(t, err)
				return
			}
			requireMessage(t, err, tt.message)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestResetPasswordForm_Validate(t *testing.T) {
	t.Run("missing token wins", func(t *testing.T) {
		err := forms.ResetPasswordForm{Password: "short", ConfirmPassword: "other"}.Validate()
		requireMessage(t, err, forms.MsgInvalidResetToken)
		require.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
	})

	t.Run("mismatch", func(t *testing.T) {
		err := forms.ResetPasswordForm{Token: "tok", Password: "newpassword", ConfirmPassword: "newpassw0rd"}.Validate()
		requireMessage(t, err, forms.MsgPasswordMismatch)
	})

	t.Run("short", func(t *testing.T) {
		err := forms.ResetPasswordForm{Token: "tok", Password: "1234567", ConfirmPassword: "1234567"}.Validate()
		requireMessage(t, err, forms.MsgPasswordTooShort)
	})

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, forms.ResetPasswordForm{Token: "tok", Password: "12345678", ConfirmPassword: "12345678"}.Validate())
	})
}

func TestLoginForm(t *testing.T) {
	f := forms.DecodeLogin(url.Values{
		forms.FieldEmail:      {" a@b.com "},
		forms.FieldPassword:   {"secret12"},
		forms.FieldRememberMe: {"on"},
	})
	require.Equal(t, "a@b.com", f.Email)
	require.True(t, f.RememberMe)
	require.NoError(t, f.Validate())

	f = forms.DecodeLogin(url.Values{forms.FieldEmail: {"a@b.com"}})
	require.False(t, f.RememberMe)
	requireMessage(t, f.Validate(), "Password is required")
}

func TestForgotPasswordForm(t *testing.T) {
	requireMessage(t, forms.DecodeForgotPassword(url.Values{}).Validate(), "Email is required")
	require.NoError(t, forms.DecodeForgotPassword(url.Values{forms.FieldEmail: {"a@b.com"}}).Validate())
}

func TestRegisterForm_Request(t *testing.T) {
	f := forms.DecodeRegister(url.Values{
		forms.FieldName:            {"Ada"},
		forms.FieldEmail:           {"a@b.com"},
		forms.FieldPassword:        {"secret12"},
		forms.FieldConfirmPassword: {"secret12"},
	})
	req := f.Request()
	require.Equal(t, "Ada", req.Name)
	require.Equal(t, "a@b.com", req.Email)
	require.Equal(t, "secret12", req.Password)
}
