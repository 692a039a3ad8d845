package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	CorsConfig
	DevAPIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() string
	GetFrontendURL() string
}

type APIConfig interface {
	GetAPIURL() string
	GetAPITimeout() time.Duration
}

type SessionConfig interface {
	GetRouteTable() string
	GetTokenStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetTokenTTL() time.Duration
	GetSessionWait() time.Duration
	GetBrowserCookieName() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type DevAPIConfig interface {
	GetDevAPIPort() string
	GetJWTSecret() string
	GetGoogleClientID() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Cors
	DevAPI
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(&source{})
}

// Load returns a Config backed by environment variables with the YAML file at path as a
// fallback layer. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	values, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(&source{file: values}), nil
}

func newMainConfig(src *source) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{src: src},
		API:     API{src: src},
		Session: Session{src: src},
		Cors:    Cors{src: src},
		DevAPI:  DevAPI{src: src},
	}
}
