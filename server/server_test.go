package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/coffee-shop-web/apiclient"
	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	"github.com/jrsteele09/coffee-shop-web/server"
	"github.com/jrsteele09/coffee-shop-web/session"
	"github.com/jrsteele09/coffee-shop-web/tokens"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers the remote API endpoints for a single account
type fakeBackend struct {
	mu     sync.Mutex
	calls  map[string]int
	role   string
	meGate chan struct{} // when set, /auth/me answers only after it is closed
}

func (b *fakeBackend) holdIdentityChecks() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meGate = make(chan struct{})
	return b.meGate
}

func (b *fakeBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.URL.Path]++
	gate := b.meGate
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case apiclient.PathLogin:
		var req apiclient.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "a@b.com" || req.Password != "secret12" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Incorrect email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "acc",
			"refresh_token": "ref",
			"user":          map[string]string{"email": "a@b.com", "name": "Ada", "role": b.role},
		})
	case apiclient.PathMe:
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if r.Header.Get("Authorization") != "Bearer acc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "a@b.com", "name": "Ada", "role": b.role})
	case apiclient.PathRegister:
		_, _ = w.Write([]byte(`{"id":"1"}`))
	case apiclient.PathPasswordResetRequest:
		_, _ = w.Write([]byte(`{"message":"sent"}`))
	case apiclient.PathPasswordReset:
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Invalid or expired reset token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type harness struct {
	backend *fakeBackend
	store   *tokens.InMemoryStore
	url     string
	client  *http.Client
}

func newHarness(t *testing.T, table, role string) *harness {
	t.Helper()
	t.Setenv("ENV", "DEV")
	t.Setenv("ROUTE_TABLE", table)
	t.Setenv("SESSION_WAIT", "1s")

	backend := &fakeBackend{calls: map[string]int{}, role: role}
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	client, err := apiclient.New(api.URL, api.Client())
	require.NoError(t, err)

	store := tokens.NewInMemoryStore()
	mgr := session.NewManager(client, store)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	srv, err := server.New(config.New(), mgr, metrics.New("test"))
	require.NoError(t, err)

	web := httptest.NewServer(srv)
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{
		backend: backend,
		store:   store,
		url:     web.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.url + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.url+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (h *harness) login(t *testing.T, rememberMe bool) {
	t.Helper()
	form := url.Values{"email": {"a@b.com"}, "password": {"secret12"}}
	if rememberMe {
		form.Set("rememberMe", "on")
	}
	resp, _ := h.post(t, server.RouteLogin, form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestProtectedRoute_RedirectsToLogin(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	resp, _ := h.get(t, server.RouteInventory)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
	require.NotEmpty(t, resp.Cookies(), "browser id cookie is issued")
	require.Zero(t, h.backend.count(apiclient.PathMe), "no token means no identity call")
}

func TestLoginScenario(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	resp, body := h.get(t, server.RouteLogin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Welcome Back")

	h.login(t, false)

	resp, body = h.get(t, server.RouteHome)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Dashboard")
	require.Contains(t, body, "Ada")

	t.Run("public page redirects signed-in user home", func(t *testing.T) {
		resp, _ := h.get(t, server.RouteLogin)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, server.RouteHome, resp.Header.Get("Location"))
	})

	t.Run("logout clears the session", func(t *testing.T) {
		resp, _ := h.post(t, server.RouteLogout, nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, server.RouteLogin, resp.Header.Get("Location"))

		resp, _ = h.get(t, server.RouteSales)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, server.RouteLogin, resp.Header.Get("Location"))
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	resp, body := h.post(t, server.RouteLogin, url.Values{"email": {"a@b.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Incorrect email or password")
	require.Contains(t, body, `value="a@b.com"`)
}

func TestRegister(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	t.Run("mismatch never reaches the api", func(t *testing.T) {
		resp, body := h.post(t, server.RouteRegister, url.Values{
			"name": {"Ada"}, "email": {"a@b.com"}, "password": {"secret12"}, "confirmPassword": {"secret13"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body, "Passwords do not match")
		require.Zero(t, h.backend.count(apiclient.PathRegister))
	})

	t.Run("short password", func(t *testing.T) {
		_, body := h.post(t, server.RouteRegister, url.Values{
			"name": {"Ada"}, "email": {"a@b.com"}, "password": {"short"}, "confirmPassword": {"short"},
		})
		require.Contains(t, body, "Password must be at least 8 characters long")
		require.Zero(t, h.backend.count(apiclient.PathRegister))
	})

	t.Run("success goes to login with a message", func(t *testing.T) {
		resp, _ := h.post(t, server.RouteRegister, url.Values{
			"name": {"Ada"}, "email": {"a@b.com"}, "password": {"secret12"}, "confirmPassword": {"secret12"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		loc, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, server.RouteLogin, loc.Path)
		require.Equal(t, "Registration successful! Please log in.", loc.Query().Get("message"))

		_, body := h.get(t, loc.String())
		require.Contains(t, body, "Registration successful! Please log in.")
	})
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	_, body := h.post(t, server.RouteForgotPassword, url.Values{"email": {"a@b.com"}})
	require.Contains(t, body, "Check your email for password reset instructions")
	require.Equal(t, 1, h.backend.count(apiclient.PathPasswordResetRequest))
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	t.Run("no token", func(t *testing.T) {
		_, body := h.get(t, server.RouteResetPassword)
		require.Contains(t, body, "Invalid reset token. Please request a new password reset.")
		require.NotContains(t, body, `name="password"`)
	})

	t.Run("token is carried into the form", func(t *testing.T) {
		_, body := h.get(t, server.RouteResetPassword+"?token=good-token")
		require.Contains(t, body, `value="good-token"`)
	})

	t.Run("backend rejection", func(t *testing.T) {
		resp, body := h.post(t, server.RouteResetPassword, url.Values{
			"token": {"expired"}, "password": {"newpassword"}, "confirmPassword": {"newpassword"},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Contains(t, body, "Invalid or expired reset token")
	})

	t.Run("success redirects to login after a delay", func(t *testing.T) {
		resp, body := h.post(t, server.RouteResetPassword, url.Values{
			"token": {"good-token"}, "password": {"newpassword"}, "confirmPassword": {"newpassword"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Password reset successful! Please log in with your new password.")
		require.Contains(t, body, `http-equiv="refresh"`)
		require.Contains(t, body, `content="2;url=/login?message=`)
	})
}

func TestDashboardTable(t *testing.T) {
	t.Run("root and unknown paths go to the dashboard", func(t *testing.T) {
		h := newHarness(t, config.RouteTableDashboard, "")
		for _, path := range []string{"/", "/no/such/page"} {
			resp, _ := h.get(t, path)
			require.Equal(t, http.StatusFound, resp.StatusCode, path)
			require.Equal(t, server.RouteDashboard, resp.Header.Get("Location"), path)
		}
	})

	t.Run("login lands on the dashboard", func(t *testing.T) {
		h := newHarness(t, config.RouteTableDashboard, "")
		resp, _ := h.post(t, server.RouteLogin, url.Values{"email": {"a@b.com"}, "password": {"secret12"}})
		require.Equal(t, server.RouteDashboard, resp.Header.Get("Location"))
	})

	t.Run("admin pages need the admin role", func(t *testing.T) {
		h := newHarness(t, config.RouteTableDashboard, "staff")
		h.login(t, false)

		resp, body := h.get(t, "/admin/users")
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Contains(t, body, "Access denied")

		resp, _ = h.get(t, server.RouteDashboard)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("admin role is let through", func(t *testing.T) {
		h := newHarness(t, config.RouteTableDashboard, "admin")
		h.login(t, true)

		resp, body := h.get(t, "/admin/users")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Admin Panel")
	})
}

func TestLogin_PersistsTokens(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")
	h.login(t, true)

	u, err := url.Parse(h.url)
	require.NoError(t, err)
	var browserID string
	for _, c := range h.client.Jar.Cookies(u) {
		browserID = c.Value
	}
	require.NotEmpty(t, browserID)

	access, err := h.store.Get(context.Background(), browserID, tokens.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "acc", access)
	refresh, err := h.store.Get(context.Background(), browserID, tokens.RefreshTokenKey)
	require.NoError(t, err)
	require.Equal(t, "ref", refresh)
}

func TestGuards_LoadingState(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")
	t.Setenv("SESSION_WAIT", "50ms")

	gate := h.backend.holdIdentityChecks()
	release := sync.OnceFunc(func() { close(gate) })
	t.Cleanup(release)

	// a returning browser with a stored token, so its first request starts a slow identity check
	browserID := uuid.NewString()
	require.NoError(t, h.store.Set(context.Background(), browserID, tokens.AccessTokenKey, "acc"))
	u, err := url.Parse(h.url)
	require.NoError(t, err)
	h.client.Jar.SetCookies(u, []*http.Cookie{{Name: config.New().GetBrowserCookieName(), Value: browserID, Path: "/"}})

	for _, path := range []string{server.RouteInventory, server.RouteLogin} {
		t.Run("GET "+path, func(t *testing.T) {
			resp, body := h.get(t, path)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Empty(t, resp.Header.Get("Location"))
			require.Contains(t, body, `aria-busy="true"`)
			require.Contains(t, body, `<meta http-equiv="refresh" content="1;url=`+path+`">`)
		})
	}

	t.Run("POST is refused instead of dropped", func(t *testing.T) {
		resp, body := h.post(t, server.RouteLogin, url.Values{"email": {"a@b.com"}, "password": {"secret12"}})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Contains(t, body, "Your previous request is still being processed")
		require.NotContains(t, body, `http-equiv="refresh"`)
		require.Zero(t, h.backend.count(apiclient.PathLogin))
	})

	release()
	require.Eventually(t, func() bool {
		resp, err := h.client.Get(h.url + server.RouteInventory)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		return err == nil && resp.StatusCode == http.StatusOK && !strings.Contains(string(body), `aria-busy="true"`)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestErrorBoundary(t *testing.T) {
	newServer := func(t *testing.T, env string) *server.Server {
		t.Setenv("ENV", env)
		srv, err := server.New(config.New(), session.NewManager(nil, tokens.NewInMemoryStore()), nil)
		require.NoError(t, err)
		return srv
	}
	panicking := func(http.ResponseWriter, *http.Request) { panic("boom") }

	t.Run("development shows the error", func(t *testing.T) {
		srv := newServer(t, "DEV")
		rec := httptest.NewRecorder()
		srv.RecoverMiddleware(panicking)(rec, httptest.NewRequest(http.MethodGet, "/sales?week=3", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := rec.Body.String()
		require.Contains(t, body, "Oops! Something went wrong")
		require.Contains(t, body, "Try Again")
		require.Contains(t, body, `href="/sales?week=3"`)
		require.Contains(t, body, "Go to Home")
		require.Contains(t, body, "boom")
	})

	t.Run("production hides it", func(t *testing.T) {
		srv := newServer(t, "PROD")
		rec := httptest.NewRecorder()
		srv.RecoverMiddleware(panicking)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "Oops! Something went wrong")
		require.NotContains(t, rec.Body.String(), "boom")
	})
}

func TestOperationalRoutes(t *testing.T) {
	h := newHarness(t, config.RouteTableApp, "")

	resp, body := h.get(t, server.RouteHealth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok","routeTable":"app"}`, body)

	resp, body = h.get(t, server.RouteThemeCSS)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css"))
	require.Contains(t, body, "--cs-primary: #7c4dff;")
	require.Contains(t, body, "--cs-background: #e0f7fa;")

	resp, _ = h.get(t, "/js/app.js")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = h.get(t, server.RouteMetrics)
	require.Contains(t, body, "http_requests_total")
}
