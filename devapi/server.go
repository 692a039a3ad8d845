// Package devapi is a local stand-in for the remote coffee shop API. It serves the
// authentication endpoints the frontend calls, backed by in-memory accounts.
package devapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/coffee-shop-web/apiclient"
	"github.com/jrsteele09/coffee-shop-web/internal/config"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	"github.com/jrsteele09/coffee-shop-web/internal/middleware"
	"github.com/jrsteele09/coffee-shop-web/users"
	"github.com/rs/zerolog/log"
)

const (
	PathGoogleLogin = "/auth/google"
	PathHealth      = "/healthz"
	PathMetrics     = "/metrics"

	maxRequestBody = 1 << 20
)

// Response messages, matching the production backend
const (
	msgBadCredentials  = "Incorrect email or password"
	msgEmailRegistered = "Email already registered"
	msgBadToken        = "Could not validate credentials"
	msgBadResetToken   = "Invalid or expired reset token"
	msgUserNotFound    = "User not found"
	msgResetRequested  = "If the email exists, a password reset link has been sent"
	msgPasswordReset   = "Password has been reset successfully"
	msgGoogleDisabled  = "Google sign-in is not configured"
	msgGoogleBadToken  = "Invalid Google token"
	msgInvalidBody     = "Invalid request body"
	msgInternalError   = "Internal server error"
)

// IDTokenVerifier checks Google ID tokens. *oidc.IDTokenVerifier satisfies it.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type Option func(*Server)

func WithMailer(m Mailer) Option {
	return func(s *Server) {
		s.mailer = m
	}
}

// WithGoogleVerifier enables POST /auth/google
func WithGoogleVerifier(v IDTokenVerifier) Option {
	return func(s *Server) {
		s.google = v
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

type Server struct {
	mux      *http.ServeMux
	config   config.Config
	accounts users.AccountRepo
	issuer   *TokenIssuer
	mailer   Mailer
	google   IDTokenVerifier
	metrics  *metrics.Metrics
	validate *validator.Validate

	registerLock sync.Mutex
}

func New(cfg config.Config, accounts users.AccountRepo, opts ...Option) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		accounts: accounts,
		issuer:   NewTokenIssuer(cfg.GetJWTSecret()),
		mailer:   LogMailer{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New("devapi")
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	api := []func(http.HandlerFunc) http.HandlerFunc{s.loggingMiddleware, middleware.Cors(s.config)}
	handle := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, chain(h, api...))
	}

	handle("POST "+apiclient.PathLogin, s.Login())
	handle("POST "+apiclient.PathRegister, s.Register())
	handle("GET "+apiclient.PathMe, s.Me())
	handle("POST "+apiclient.PathPasswordResetRequest, s.RequestPasswordReset())
	handle("POST "+apiclient.PathPasswordReset, s.ResetPassword())
	handle("POST "+PathGoogleLogin, s.GoogleLogin())
	// Preflight for every endpoint
	handle("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	handle("GET "+PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.Handle("GET "+PathMetrics, s.metrics.Handler())
}

func chain(h http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		s.metrics.ObserveRequest(r.Method, r.Pattern, sw.status, time.Since(start))
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("status", sw.status).Dur("took", time.Since(start)).Msg("devapi request")
	}
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"is_active"`
}

func toUserResponse(a *users.Account) userResponse {
	return userResponse{ID: a.ID, Email: a.Email, Name: a.Name, Picture: a.Picture, Role: a.Role, IsActive: a.IsActive}
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         userResponse `json:"user"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

type googleRequest struct {
	Token string `json:"token" validate:"required"`
}

func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.LoginRequest
		if !s.decode(w, r, &req) {
			return
		}
		account, err := s.authenticate(req.Email, req.Password)
		if err != nil {
			log.Debug().Err(err).Str("email", req.Email).Msg("Login rejected")
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeMessage(w, http.StatusUnauthorized, msgBadCredentials)
			return
		}
		s.issueTokens(w, account)
	}
}

// authenticate returns the account owning email when password matches its hash.
// Unknown emails and accounts without a password (Google sign-in) fail the same way.
func (s *Server) authenticate(email, password string) (*users.Account, error) {
	account, err := s.accounts.GetByEmail(email)
	if err != nil || account.PasswordHash == "" || !users.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidCredentials, "[devapi authenticate] %s", email)
	}
	return account, nil
}

func (s *Server) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !s.decode(w, r, &req) {
			return
		}

		account, err := s.createAccount(req)
		switch {
		case errors.Is(err, apperrors.ErrEmailRegistered):
			writeMessage(w, http.StatusBadRequest, msgEmailRegistered)
			return
		case err != nil:
			log.Err(err).Msg("Failed to register account")
			writeMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(account))
	}
}

// createAccount stores a new password account. Emails are unique.
func (s *Server) createAccount(req registerRequest) (*users.Account, error) {
	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[devapi createAccount] hash password")
	}

	s.registerLock.Lock()
	defer s.registerLock.Unlock()

	if _, err := s.accounts.GetByEmail(req.Email); err == nil {
		return nil, apperrors.Wrapf(apperrors.ErrEmailRegistered, "[devapi createAccount] %s", req.Email)
	}
	account := &users.Account{
		User:         users.User{Email: req.Email, Name: req.Name, IsActive: true},
		PasswordHash: hash,
	}
	if err := s.accounts.Upsert(account); err != nil {
		return nil, apperrors.Wrapf(err, "[devapi createAccount] store account")
	}
	return account, nil
}

func (s *Server) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := s.bearerAccount(w, r, TokenAccess)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(account))
	}
}

// RequestPasswordReset answers the same way whether or not the email is known.
func (s *Server) RequestPasswordReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if !s.decode(w, r, &req) {
			return
		}

		if account, err := s.accounts.GetByEmail(req.Email); err == nil {
			token, err := s.issuer.Issue(account.Email, TokenReset, ResetTokenTTL)
			if err != nil {
				log.Err(err).Msg("Failed to issue reset token")
				writeMessage(w, http.StatusInternalServerError, msgInternalError)
				return
			}
			if err := s.mailer.SendResetLink(r.Context(), account.Email, s.resetLink(token)); err != nil {
				log.Err(err).Str("email", account.Email).Msg("Failed to send password reset email")
				writeMessage(w, http.StatusInternalServerError, "Failed to send password reset email")
				return
			}
		}
		writeMessage(w, http.StatusOK, msgResetRequested)
	}
}

func (s *Server) ResetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := s.issuer.Verify(bearerToken(r), TokenReset)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, msgBadResetToken)
			return
		}
		var req resetRequest
		if !s.decode(w, r, &req) {
			return
		}

		account, err := s.accounts.GetByEmail(email)
		if err != nil {
			writeMessage(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		if account.PasswordHash, err = users.HashPassword(req.NewPassword); err != nil {
			log.Err(err).Msg("Failed to hash password")
			writeMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}
		if err := s.accounts.Upsert(account); err != nil {
			log.Err(err).Msg("Failed to store account")
			writeMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}
		writeMessage(w, http.StatusOK, msgPasswordReset)
	}
}

type googleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleLogin signs in with a Google ID token, creating a password-less account on first use.
func (s *Server) GoogleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.google == nil {
			writeMessage(w, http.StatusNotFound, msgGoogleDisabled)
			return
		}
		var req googleRequest
		if !s.decode(w, r, &req) {
			return
		}

		idToken, err := s.google.Verify(r.Context(), req.Token)
		if err != nil {
			log.Debug().Err(err).Msg("Google token rejected")
			writeMessage(w, http.StatusBadRequest, msgGoogleBadToken)
			return
		}
		var claims googleClaims
		if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
			writeMessage(w, http.StatusBadRequest, msgGoogleBadToken)
			return
		}

		s.registerLock.Lock()
		account, err := s.accounts.GetByEmail(claims.Email)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			account = &users.Account{User: users.User{Email: claims.Email, Name: claims.Name, Picture: claims.Picture, IsActive: true}}
			err = s.accounts.Upsert(account)
		}
		s.registerLock.Unlock()
		if err != nil {
			log.Err(err).Msg("Failed to store google account")
			writeMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}
		s.issueTokens(w, account)
	}
}

func (s *Server) issueTokens(w http.ResponseWriter, account *users.Account) {
	access, err := s.issuer.Issue(account.Email, TokenAccess, AccessTokenTTL)
	if err == nil {
		var refresh string
		refresh, err = s.issuer.Issue(account.Email, TokenRefresh, RefreshTokenTTL)
		if err == nil {
			writeJSON(w, http.StatusOK, tokenResponse{
				AccessToken:  access,
				RefreshToken: refresh,
				TokenType:    "bearer",
				User:         toUserResponse(account),
			})
			return
		}
	}
	log.Err(err).Msg("Failed to issue tokens")
	writeMessage(w, http.StatusInternalServerError, msgInternalError)
}

func (s *Server) bearerAccount(w http.ResponseWriter, r *http.Request, tokenType string) (*users.Account, bool) {
	email, err := s.issuer.Verify(bearerToken(r), tokenType)
	if err == nil {
		var account *users.Account
		if account, err = s.accounts.GetByEmail(email); err == nil {
			return account, true
		}
	}
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeMessage(w, http.StatusUnauthorized, msgBadToken)
	return nil, false
}

func (s *Server) resetLink(token string) string {
	return strings.TrimRight(s.config.GetFrontendURL(), "/") + "/reset-password?token=" + url.QueryEscape(token)
}

// decode reads a JSON body into v and validates it, writing a 422 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			writeMessage(w, http.StatusUnprocessableEntity, "Invalid "+strings.ToLower(fieldErrs[0].Field()))
			return false
		}
		writeMessage(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiclient.ErrorBody{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write response")
	}
}
