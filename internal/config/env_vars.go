package config

import (
	"os"
	"strings"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	envVar            = "ENV"
	logLevelVar       = "LOG_LEVEL"
	frontendURLEnvVar = "FRONTEND_URL"

	envDevelopment = "DEV"
)

type EnvVars struct {
	src *source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	return asAddr(e.src.get(portEnvVar, "3000"))
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "Coffee Shop Manager")
}

func (e EnvVars) GetEnv() string {
	return e.src.get(envVar, envDevelopment)
}

func (e EnvVars) IsDev() bool {
	return strings.EqualFold(e.GetEnv(), envDevelopment)
}

func (e EnvVars) GetLogLevel() string {
	if e.IsDev() {
		return e.src.get(logLevelVar, "debug")
	}
	return e.src.get(logLevelVar, "info")
}

// GetFrontendURL is the public URL of the web frontend, used to build password reset links
func (e EnvVars) GetFrontendURL() string {
	return e.src.get(frontendURLEnvVar, "http://localhost:3000")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func asAddr(port string) string {
	if port != "" && port[0] != ':' {
		return ":" + port
	}
	return port
}
