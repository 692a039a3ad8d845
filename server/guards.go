package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
	"github.com/jrsteele09/coffee-shop-web/session"
	"github.com/rs/zerolog/log"
)

// BrowserMiddleware makes sure the request carries a browser id and attaches that browser's
// session to the request context.
func (s *Server) BrowserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if id := s.browserID(r); id != "" {
			sess = s.sessions.Open(r.Context(), id)
		} else {
			id = uuid.NewString()
			s.setBrowserCookie(w, r, id)
			sess = s.sessions.OpenFresh(id)
		}
		next(w, r.WithContext(withSession(r.Context(), sess)))
	}
}

// RequireSession lets signed-in users through. Anonymous requests are sent to the login page
// and users without role get the forbidden page. An empty role only needs a session.
func (s *Server) RequireSession(role string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			st, ok := s.awaitSession(w, r)
			if !ok {
				return
			}
			if st.User == nil {
				redirectSuccess(w, r, RouteLogin)
				return
			}
			if !st.User.HasRole(role) {
				log.Info().Err(apperrors.Wrapf(apperrors.ErrForbidden, "role %q required", role)).Str("path", r.URL.Path).Msg("Role check failed")
				s.render(w, r, View{Template: pageForbidden, Title: "Access denied", Status: http.StatusForbidden})
				return
			}
			next(w, r)
		}
	}
}

// PublicOnly keeps signed-in users away from the login and registration pages
func (s *Server) PublicOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := s.awaitSession(w, r)
		if !ok {
			return
		}
		if st.User != nil {
			redirectSuccess(w, r, s.table.Home)
			return
		}
		next(w, r)
	}
}

// awaitSession waits a bounded time for the identity check. While it is still running the
// neutral progress page is rendered and false is returned.
func (s *Server) awaitSession(w http.ResponseWriter, r *http.Request) (session.State, bool) {
	sess := sessionFrom(r)
	if sess == nil {
		s.renderError(w, r, errors.New("no session attached to request"))
		return session.State{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.GetSessionWait())
	defer cancel()
	_ = sess.Wait(ctx)

	st := sess.Snapshot()
	if !st.Loading {
		return st, true
	}

	// A refresh would replay a submitted form as a GET, so other methods are refused instead.
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.render(w, r, View{
			Template: pageLoading,
			Title:    "Loading",
			Status:   http.StatusConflict,
			Data:     msgRequestInFlight,
		})
		return st, false
	}
	s.render(w, r, View{
		Template: pageLoading,
		Title:    "Loading",
		Refresh:  &Refresh{After: 1, URL: r.URL.RequestURI()},
	})
	return st, false
}
