package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/coffee-shop-web/apiclient"
	"github.com/jrsteele09/coffee-shop-web/forms"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/jrsteele09/coffee-shop-web/session"
	"github.com/rs/zerolog/log"
)

// Messages shown by the auth pages
const (
	msgRegistered      = "Registration successful! Please log in."
	msgResetEmailSent  = "Check your email for password reset instructions"
	msgPasswordReset   = "Password reset successful! Please log in with your new password."
	msgRequestInFlight = "Your previous request is still being processed"
	msgRegisterFailed  = "Failed to register. Please try again."
	msgResetFailed     = "Failed to reset password"
	resetRedirectDelay = 2 // seconds
)

// AuthPageData is the model of the login, registration and password pages. Passwords are never
// echoed back.
type AuthPageData struct {
	Error      string
	Message    string
	Success    string
	Name       string
	Email      string
	RememberMe bool
	Token      string
}

// LoginPage renders GET /login
func (s *Server) LoginPage(r *http.Request) (View, error) {
	sess, err := requireSession(r)
	if err != nil {
		return View{}, err
	}
	return loginView(AuthPageData{
		Error:   sess.Snapshot().Error,
		Message: r.URL.Query().Get(queryMessage),
	}, http.StatusOK), nil
}

// LoginSubmit handles POST /login
func (s *Server) LoginSubmit(r *http.Request) (View, error) {
	sess, err := requireSession(r)
	if err != nil {
		return View{}, err
	}
	if err := r.ParseForm(); err != nil {
		return loginView(AuthPageData{Error: "Invalid form data"}, http.StatusBadRequest), nil
	}

	form := forms.DecodeLogin(r.PostForm)
	data := AuthPageData{Email: form.Email, RememberMe: form.RememberMe}
	if err := form.Validate(); err != nil {
		data.Error = formMessage(err)
		return loginView(data, statusFor(err)), nil
	}

	if _, err := sess.Login(r.Context(), form.Email, form.Password, form.RememberMe); err != nil {
		data.Error = sess.Snapshot().Error
		if errors.Is(err, apperrors.ErrRequestInFlight) {
			data.Error = msgRequestInFlight
		}
		return loginView(data, statusFor(err)), nil
	}
	return View{Redirect: s.table.Home}, nil
}

func loginView(data AuthPageData, status int) View {
	return View{Template: pageLogin, Title: "Sign In", Status: status, Data: data}
}

// RegisterPage renders GET /register
func (s *Server) RegisterPage(_ *http.Request) (View, error) {
	return registerView(AuthPageData{}, http.StatusOK), nil
}

// RegisterSubmit handles POST /register
func (s *Server) RegisterSubmit(r *http.Request) (View, error) {
	sess, err := requireSession(r)
	if err != nil {
		return View{}, err
	}
	if err := r.ParseForm(); err != nil {
		return registerView(AuthPageData{Error: "Invalid form data"}, http.StatusBadRequest), nil
	}

	form := forms.DecodeRegister(r.PostForm)
	data := AuthPageData{Name: form.Name, Email: form.Email}
	if err := form.Validate(); err != nil {
		data.Error = formMessage(err)
		return registerView(data, statusFor(err)), nil
	}

	if _, err := sess.Register(r.Context(), form.Request()); err != nil {
		data.Error = pageMessage(err, msgRegisterFailed)
		return registerView(data, statusFor(err)), nil
	}
	return View{Redirect: withMessage(RouteLogin, msgRegistered)}, nil
}

func registerView(data AuthPageData, status int) View {
	return View{Template: pageRegister, Title: "Create Account", Status: status, Data: data}
}

// ForgotPasswordPage renders GET /forgot-password
func (s *Server) ForgotPasswordPage(_ *http.Request) (View, error) {
	return forgotView(AuthPageData{}, http.StatusOK), nil
}

// ForgotPasswordSubmit handles POST /forgot-password
func (s *Server) ForgotPasswordSubmit(r *http.Request) (View, error) {
	sess, err := requireSession(r)
	if err != nil {
		return View{}, err
	}
	if err := r.ParseForm(); err != nil {
		return forgotView(AuthPageData{Error: "Invalid form data"}, http.StatusBadRequest), nil
	}

	form := forms.DecodeForgotPassword(r.PostForm)
	data := AuthPageData{Email: form.Email}
	if err := form.Validate(); err != nil {
		data.Error = formMessage(err)
		return forgotView(data, statusFor(err)), nil
	}

	if _, err := sess.RequestPasswordReset(r.Context(), form.Email); err != nil {
		data.Error = pageMessage(err, msgResetFailed)
		return forgotView(data, statusFor(err)), nil
	}
	return forgotView(AuthPageData{Success: msgResetEmailSent}, http.StatusOK), nil
}

func forgotView(data AuthPageData, status int) View {
	return View{Template: pageForgotPassword, Title: "Reset Password", Status: status, Data: data}
}

// ResetPasswordPage renders GET /reset-password?token=...
// Without a token the page only offers to request a new link.
func (s *Server) ResetPasswordPage(r *http.Request) (View, error) {
	return resetView(AuthPageData{Token: r.URL.Query().Get(queryToken)}, http.StatusOK), nil
}

// ResetPasswordSubmit handles POST /reset-password
func (s *Server) ResetPasswordSubmit(r *http.Request) (View, error) {
	sess, err := requireSession(r)
	if err != nil {
		return View{}, err
	}
	if err := r.ParseForm(); err != nil {
		return resetView(AuthPageData{Error: "Invalid form data"}, http.StatusBadRequest), nil
	}

	form := forms.DecodeResetPassword(r.PostForm)
	data := AuthPageData{Token: form.Token}
	if err := form.Validate(); err != nil {
		data.Error = formMessage(err)
		return resetView(data, statusFor(err)), nil
	}

	if _, err := sess.ConfirmPasswordReset(r.Context(), form.Token, form.Password); err != nil {
		data.Error = pageMessage(err, msgResetFailed)
		return resetView(data, statusFor(err)), nil
	}

	v := resetView(AuthPageData{Token: form.Token, Success: msgPasswordReset}, http.StatusOK)
	v.Refresh = &Refresh{After: resetRedirectDelay, URL: withMessage(RouteLogin, msgPasswordReset)}
	return v, nil
}

func resetView(data AuthPageData, status int) View {
	return View{Template: pageResetPassword, Title: "Set New Password", Status: status, Data: data}
}

// LogoutHandler clears the browser's tokens and drops its session. No call reaches the API.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess := sessionFrom(r); sess != nil {
			if err := sess.Logout(r.Context()); err != nil {
				log.Err(err).Str("browser_id", sess.BrowserID()).Msg("Failed to clear tokens on logout")
			}
			s.sessions.Close(sess.BrowserID())
		}
		redirectSuccess(w, r, RouteLogin)
	}
}

func requireSession(r *http.Request) (*session.Session, error) {
	sess := sessionFrom(r)
	if sess == nil {
		return nil, apperrors.ErrSessionNotStarted
	}
	return sess, nil
}

// formMessage is the text of a validation failure
func formMessage(err error) string {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

// pageMessage prefers the backend's own message over the page fallback
func pageMessage(err error, fallback string) string {
	if errors.Is(err, apperrors.ErrRequestInFlight) {
		return msgRequestInFlight
	}
	return apiclient.MessageOr(err, fallback)
}

// statusFor picks the status of a re-rendered form
func statusFor(err error) int {
	var apiErr *apiclient.Error
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidResetToken):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrRequestInFlight):
		return http.StatusConflict
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
