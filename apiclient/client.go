package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/jrsteele09/coffee-shop-web/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxBodySize = 1 << 20

// Client calls the remote coffee shop API. Every method is a single request with no retries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a client for the API rooted at baseURL. A nil httpClient uses a client with a 15s timeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidBaseURL, "[apiclient New] %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Me fetches the record of the user owning accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (*users.User, error) {
	var user users.User
	if err := c.do(ctx, c.bearer(ctx, accessToken), http.MethodGet, PathMe, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for tokens and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathLogin, LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account. The response payload is backend defined and returned as is.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathRegister, req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// RequestPasswordReset asks the backend to send a reset link to email. No credentials are sent.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, c.httpClient, http.MethodPost, PathPasswordResetRequest, resetRequest{Email: email}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ResetPassword sets a new password, presenting the reset token as the bearer credential.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, c.bearer(ctx, resetToken), http.MethodPost, PathPasswordReset, resetConfirm{NewPassword: newPassword}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// bearer returns an http.Client that adds "Authorization: Bearer <token>" on top of the base client
func (c *Client) bearer(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, Path: path, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("api request failed")
		return &Error{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: messageFromBody(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
