package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/coffee-shop-web/internal/config"
	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	"github.com/jrsteele09/coffee-shop-web/session"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
	contentTypeCSS  = "text/css; charset=utf-8"
)

// Sessions hands out the authentication holder of each browser.
type Sessions interface {
	Open(ctx context.Context, browserID string) *session.Session
	OpenFresh(browserID string) *session.Session
	Close(browserID string)
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions Sessions
	metrics  *metrics.Metrics
	pages    map[string]*template.Template
	table    RouteTable
	theme    Theme
}

func New(cfg config.Config, sessions Sessions, m *metrics.Metrics) (*Server, error) {
	table, err := routeTableFor(cfg.GetRouteTable())
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	if m == nil {
		m = metrics.New("frontend")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: sessions,
		metrics:  m,
		pages:    pages,
		table:    table,
		theme:    DefaultTheme(),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Table returns the routing table the server was built with
func (s *Server) Table() RouteTable {
	return s.table
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) isDev() bool {
	return strings.EqualFold(s.env, "DEV")
}

func (s *Server) logRoutes() {
	if !s.isDev() {
		return
	}
	log.Info().Str("table", s.table.Name).Int("routes", len(s.routes)).Msg("Routes registered")
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path string, err error) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+err.Error()+ResetColor)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
