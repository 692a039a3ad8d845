package apiclient

import "github.com/jrsteele09/coffee-shop-web/users"

// Endpoint paths of the remote coffee shop API.
const (
	PathMe                   = "/auth/me"
	PathLogin                = "/auth/login"
	PathRegister             = "/auth/register"
	PathPasswordResetRequest = "/auth/password/reset-request"
	PathPasswordReset        = "/auth/password/reset"
)

// LoginRequest is the body posted to /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful /auth/login.
type LoginResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Usage: sent as "Authorization: Bearer <access_token>" to /auth/me.
	// It is treated as opaque; expiry is whatever the backend decides.
	AccessToken string `json:"access_token"`

	// RefreshToken is intended for renewal. The frontend only persists it
	// when the user asked to be remembered; no renewal flow uses it yet.
	// May be empty when the backend does not issue one.
	RefreshToken string `json:"refresh_token,omitempty"`

	// User is the signed-in user's record.
	User users.User `json:"user"`
}

// RegisterRequest is the body posted to /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirm struct {
	NewPassword string `json:"new_password"`
}

// ErrorBody is the error payload shape understood by the client. The coffee shop backend
// sends message; FastAPI style backends send a string detail.
type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}
