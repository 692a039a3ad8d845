package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("API_URL", "")
	t.Setenv("PORT", "")

	c := config.New()
	require.Equal(t, ":3000", c.GetPort())
	require.True(t, c.IsDev())
	require.Equal(t, "http://localhost:9999", c.GetAPIURL())
	require.Equal(t, 15*time.Second, c.GetAPITimeout())
	require.Equal(t, config.RouteTableApp, c.GetRouteTable())
	require.Equal(t, config.TokenStoreMemory, c.GetTokenStore())
	require.NoError(t, config.Validate(c))
}

func TestConfig_APIURLByEnvironment(t *testing.T) {
	t.Setenv("API_URL", "")

	t.Run("production", func(t *testing.T) {
		t.Setenv("ENV", "PROD")
		require.Equal(t, "https://coffee-shop-backend-production.up.railway.app", config.New().GetAPIURL())
	})

	t.Run("explicit override", func(t *testing.T) {
		t.Setenv("ENV", "PROD")
		t.Setenv("API_URL", "http://api.internal:8000")
		require.Equal(t, "http://api.internal:8000", config.New().GetAPIURL())
	})
}

func TestConfig_LoadFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ROUTE_TABLE", "")
	t.Setenv("SESSION_WAIT", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: 8081\nROUTE_TABLE: dashboard\nSESSION_WAIT: 500ms\n"), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8081", c.GetPort())
	require.Equal(t, config.RouteTableDashboard, c.GetRouteTable())
	require.Equal(t, 500*time.Millisecond, c.GetSessionWait())

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		require.Equal(t, ":9000", c.GetPort())
	})
}

func TestConfig_LoadFileRejectsNesting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 1\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be a scalar")
}

func TestConfig_Validate(t *testing.T) {
	t.Run("unknown route table", func(t *testing.T) {
		t.Setenv("ROUTE_TABLE", "admin")
		err := config.Validate(config.New())
		require.Error(t, err)
		require.Contains(t, err.Error(), "RouteTable")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("API_TIMEOUT", "soon")
		err := config.Validate(config.New())
		require.Error(t, err)
		require.Contains(t, err.Error(), "APITimeout")
	})

	t.Run("bad api url", func(t *testing.T) {
		t.Setenv("API_URL", "not a url")
		require.Error(t, config.Validate(config.New()))
	})
}

func TestConfig_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	origins := config.New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("http://a.test"))
	require.True(t, origins.IsAllowedOrigin("http://b.test"))
	require.False(t, origins.IsAllowedOrigin("http://c.test"))
	require.Equal(t, "http://a.test, http://b.test", origins.String())
}
