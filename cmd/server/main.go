package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/coffee-shop-web/apiclient"
	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/jrsteele09/coffee-shop-web/internal/logging"
	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	"github.com/jrsteele09/coffee-shop-web/server"
	"github.com/jrsteele09/coffee-shop-web/session"
	"github.com/jrsteele09/coffee-shop-web/tokens"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = 5 * time.Minute

func main() {
	configFile := flag.String("config", config.GetEnv("CONFIG_FILE", ""), "optional YAML file with configuration values")
	flag.Parse()

	if err := run(*configFile); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(configFile string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	logging.Setup(c.GetLogLevel(), c.IsDev())
	if err := config.Validate(c); err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	store, closeStore, err := newTokenStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	api, err := apiclient.New(c.GetAPIURL(), &http.Client{Timeout: c.GetAPITimeout()})
	if err != nil {
		return err
	}

	m := metrics.New("frontend")
	manager := session.NewManager(api, store, session.WithMetrics(m))

	srv, err := server.New(c, manager, m)
	if err != nil {
		return err
	}

	log.Info().Str("api", api.BaseURL()).Str("table", srv.Table().Name).Str("tokens", c.GetTokenStore()).Msg("Frontend ready")

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		manager.RunSweeper(ctx, sweepInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return shutdown(httpServer, manager)
	})
	return g.Wait()
}

// newTokenStore builds the configured token store and a func releasing it
func newTokenStore(c config.Config) (tokens.Store, func(), error) {
	if c.GetTokenStore() != config.TokenStoreRedis {
		return tokens.NewInMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddr(), err)
	}
	log.Info().Str("addr", c.GetRedisAddr()).Msg("Using redis token store")

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Err(err).Msg("Failed to close redis client")
		}
	}
	return tokens.NewRedisStore(client, "", c.GetTokenTTL()), closeFn, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server, manager *session.Manager) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	if err := manager.Shutdown(ctx); err != nil {
		return fmt.Errorf("manager.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
