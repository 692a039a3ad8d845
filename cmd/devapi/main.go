// Command devapi runs an in-memory stand-in for the coffee shop API so the frontend
// can be developed without the production backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/coffee-shop-web/devapi"
	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/jrsteele09/coffee-shop-web/internal/logging"
	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	fakeuserrepo "github.com/jrsteele09/coffee-shop-web/users/repofake"
	"github.com/rs/zerolog/log"
)

const googleIssuer = "https://accounts.google.com"

func main() {
	configFile := flag.String("config", config.GetEnv("CONFIG_FILE", ""), "optional YAML file with configuration values")
	flag.Parse()

	if err := run(*configFile); err != nil {
		log.Fatal().Err(err).Msg("Error running dev api")
	}
}

func run(configFile string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	logging.Setup(c.GetLogLevel(), c.IsDev())
	if err := config.Validate(c); err != nil {
		return err
	}

	figure.NewFigure("dev api", "cybermedium", true).Print()
	fmt.Println()

	opts := []devapi.Option{
		devapi.WithMailer(devapi.LogMailer{}),
		devapi.WithMetrics(metrics.New("devapi")),
	}
	if clientID := c.GetGoogleClientID(); clientID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		provider, err := oidc.NewProvider(ctx, googleIssuer)
		cancel()
		if err != nil {
			return fmt.Errorf("oidc.NewProvider: %w", err)
		}
		opts = append(opts, devapi.WithGoogleVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})))
		log.Info().Msg("Google sign-in enabled")
	}

	api := devapi.New(c, fakeuserrepo.NewFakeAccountRepo(), opts...)
	httpServer := &http.Server{Addr: c.GetDevAPIPort(), Handler: api, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Dev api listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
