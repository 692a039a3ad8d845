package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/jrsteele09/coffee-shop-web/internal/middleware"
	"github.com/stretchr/testify/require"
)

func TestCors(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	var called bool
	h := middleware.Cors(config.New())(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	t.Run("allowed preflight", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.False(t, called)
		require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		h(rec, req)

		require.True(t, called)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same origin", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, called)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
