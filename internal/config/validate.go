package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// settings is the validated view of a Config. Raw duration strings are kept so that a typo is
// reported instead of silently replaced by the default.
type settings struct {
	Port        string `validate:"required"`
	Env         string `validate:"required"`
	LogLevel    string `validate:"oneof=trace debug info warn error"`
	APIURL      string `validate:"required,url"`
	APITimeout  string `validate:"omitempty,duration"`
	RouteTable  string `validate:"oneof=app dashboard"`
	TokenStore  string `validate:"oneof=memory redis"`
	RedisAddr   string `validate:"required_if=TokenStore redis,omitempty,hostname_port"`
	TokenTTL    string `validate:"omitempty,duration"`
	SessionWait string `validate:"omitempty,duration"`
	FrontendURL string `validate:"required,url"`
}

// Validate checks the configuration values that the application cannot run without.
func Validate(c Config) error {
	s := settings{
		Port:        c.GetPort(),
		Env:         c.GetEnv(),
		LogLevel:    c.GetLogLevel(),
		APIURL:      c.GetAPIURL(),
		APITimeout:  rawValue(c, apiTimeoutVar),
		RouteTable:  c.GetRouteTable(),
		TokenStore:  c.GetTokenStore(),
		RedisAddr:   c.GetRedisAddr(),
		TokenTTL:    rawValue(c, tokenTTLVar),
		SessionWait: rawValue(c, sessionWaitVar),
		FrontendURL: c.GetFrontendURL(),
	}

	v := validator.New()
	if err := v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("config validation setup failed: %w", err)
	}
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func rawValue(c Config, name string) string {
	if mc, ok := c.(mainConfig); ok {
		return mc.EnvVars.src.get(name, "")
	}
	return os.Getenv(name)
}
