package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jrsteele09/coffee-shop-web/apiclient"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	"github.com/jrsteele09/coffee-shop-web/tokens"
	"github.com/jrsteele09/coffee-shop-web/users"
	"github.com/rs/zerolog/log"
)

// Fallback messages recorded when the backend gives no message of its own
const (
	LoginFailedMessage    = "An error occurred during login"
	RegisterFailedMessage = "An error occurred during registration"
	GenericFailedMessage  = "An error occurred"
)

// Operation names used for metrics and logs
const (
	OpCheckSession = "check_session"
	OpLogin        = "login"
	OpLogout       = "logout"
	OpRegister     = "register"
	OpResetRequest = "reset_request"
	OpResetConfirm = "reset_confirm"
)

// API is the part of the remote API the session needs.
type API interface {
	Me(ctx context.Context, accessToken string) (*users.User, error)
	Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (json.RawMessage, error)
	RequestPasswordReset(ctx context.Context, email string) (json.RawMessage, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error)
}

var _ API = (*apiclient.Client)(nil)

// State is a point-in-time copy of a session.
type State struct {
	User    *users.User
	Loading bool
	Error   string
}

// Authenticated reports whether a user record is present
func (s State) Authenticated() bool {
	return s.User != nil
}

// Session is the authentication holder of one browser. The user is only ever set by a
// successful identity check or login, and is emptied whenever the tokens are cleared.
type Session struct {
	browserID string
	api       API
	store     tokens.Store
	metrics   *metrics.Metrics

	// writeMu serialises token writes so the identity check can tell whether a login or
	// logout happened while it was waiting on the backend.
	writeMu sync.Mutex
	gen     uint64

	mu      sync.RWMutex
	user    *users.User
	loading bool
	errMsg  string
	busy    bool
	ready   chan struct{}
}

func newSession(browserID string, api API, store tokens.Store, m *metrics.Metrics) *Session {
	return &Session{
		browserID: browserID,
		api:       api,
		store:     store,
		metrics:   m,
		loading:   true,
		ready:     make(chan struct{}),
	}
}

// BrowserID returns the id of the browser owning the session
func (s *Session) BrowserID() string {
	return s.browserID
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{Loading: s.loading, Error: s.errMsg}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Wait blocks until the initial identity check has finished or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkSession resolves the persisted access token into a user. It never fails: any problem
// leaves the session empty with both tokens cleared. A login or logout that lands while the
// check is running wins, and the check's result is dropped.
func (s *Session) checkSession(ctx context.Context) {
	defer s.finishLoading()

	gen := s.generation()
	token, err := s.accessToken(ctx)
	if errors.Is(err, apperrors.ErrNoAccessToken) {
		s.applyCheck(ctx, gen, nil, false)
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("browser_id", s.browserID).Msg("Failed to read access token")
		s.metrics.ObserveAuth(OpCheckSession, err)
		s.applyCheck(ctx, gen, nil, false)
		return
	}

	user, err := s.api.Me(ctx, token)
	s.metrics.ObserveAuth(OpCheckSession, err)
	if err != nil {
		log.Info().Err(err).Str("browser_id", s.browserID).Msg("Identity check failed, clearing tokens")
		s.applyCheck(ctx, gen, nil, true)
		return
	}
	s.applyCheck(ctx, gen, user, false)
}

// applyCheck stores the outcome of the identity check unless the session changed since gen.
func (s *Session) applyCheck(ctx context.Context, gen uint64, user *users.User, wipe bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.gen != gen {
		log.Debug().Str("browser_id", s.browserID).Msg("Session changed during identity check, result dropped")
		return
	}
	if wipe {
		if err := s.clearTokens(ctx); err != nil {
			log.Warn().Err(err).Str("browser_id", s.browserID).Msg("Failed to clear tokens")
		}
	}

	s.mu.Lock()
	s.user = user
	if user != nil {
		s.errMsg = ""
	}
	s.mu.Unlock()
}

func (s *Session) accessToken(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, s.browserID, tokens.AccessTokenKey)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", apperrors.ErrNoAccessToken
	}
	return token, nil
}

func (s *Session) generation() uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.gen
}

// Login posts the credentials. The access token is always persisted and the refresh token
// only when rememberMe is set.
func (s *Session) Login(ctx context.Context, email, password string, rememberMe bool) (*users.User, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.metrics.ObserveAuth(OpLogin, err)
		s.setError(apiclient.MessageOr(err, LoginFailedMessage))
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.gen++
	if err := s.persistTokens(ctx, resp, rememberMe); err != nil {
		s.metrics.ObserveAuth(OpLogin, err)
		s.setError(apiclient.MessageOr(err, LoginFailedMessage))
		return nil, err
	}
	s.metrics.ObserveAuth(OpLogin, nil)

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.errMsg = ""
	s.mu.Unlock()

	log.Debug().Str("browser_id", s.browserID).Str("email", user.Email).Bool("remember_me", rememberMe).Msg("Signed in")
	out := user
	return &out, nil
}

func (s *Session) persistTokens(ctx context.Context, resp *apiclient.LoginResponse, rememberMe bool) error {
	if err := s.store.Set(ctx, s.browserID, tokens.AccessTokenKey, resp.AccessToken); err != nil {
		return err
	}
	if rememberMe {
		return s.store.Set(ctx, s.browserID, tokens.RefreshTokenKey, resp.RefreshToken)
	}
	return s.store.Remove(ctx, s.browserID, tokens.RefreshTokenKey)
}

// Logout clears both persisted tokens and the user. It makes no network call.
func (s *Session) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.gen++

	err := s.clearTokens(ctx)
	s.setUser(nil)
	s.metrics.ObserveAuth(OpLogout, err)
	return err
}

// Register posts the registration fields and returns the backend payload.
func (s *Session) Register(ctx context.Context, req apiclient.RegisterRequest) (json.RawMessage, error) {
	return s.call(OpRegister, RegisterFailedMessage, func() (json.RawMessage, error) {
		return s.api.Register(ctx, req)
	})
}

// RequestPasswordReset asks the backend to email a reset link.
func (s *Session) RequestPasswordReset(ctx context.Context, email string) (json.RawMessage, error) {
	return s.call(OpResetRequest, GenericFailedMessage, func() (json.RawMessage, error) {
		return s.api.RequestPasswordReset(ctx, email)
	})
}

// ConfirmPasswordReset sets a new password using the emailed reset token.
func (s *Session) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error) {
	return s.call(OpResetConfirm, GenericFailedMessage, func() (json.RawMessage, error) {
		return s.api.ResetPassword(ctx, resetToken, newPassword)
	})
}

func (s *Session) call(op, fallback string, fn func() (json.RawMessage, error)) (json.RawMessage, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	raw, err := fn()
	s.metrics.ObserveAuth(op, err)
	if err != nil {
		s.setError(apiclient.MessageOr(err, fallback))
		return nil, err
	}
	s.setError("")
	return raw, nil
}

// begin marks the single outstanding request. A second submission while one is running is refused.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return apperrors.ErrRequestInFlight
	}
	s.busy = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) clearTokens(ctx context.Context) error {
	return errors.Join(
		s.store.Remove(ctx, s.browserID, tokens.AccessTokenKey),
		s.store.Remove(ctx, s.browserID, tokens.RefreshTokenKey),
	)
}

func (s *Session) setUser(user *users.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *Session) finishLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		s.loading = false
		close(s.ready)
	}
}
