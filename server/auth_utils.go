package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/coffee-shop-web/session"
)

// browserCookieMaxAge keeps the browser id around like browser storage would
const browserCookieMaxAge = 365 * 24 * time.Hour

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the *session.Session of the requesting browser
const ContextKeySession ContextKey = "session"

func withSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// sessionFrom returns the session attached by BrowserMiddleware, or nil
func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(ContextKeySession).(*session.Session)
	return s
}

// browserID reads the browser id cookie. Anything that is not a uuid is ignored.
func (s *Server) browserID(r *http.Request) string {
	cookie, err := r.Cookie(s.config.GetBrowserCookieName())
	if err != nil || cookie.Value == "" {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setBrowserCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetBrowserCookieName(),
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(browserCookieMaxAge.Seconds()),
	})
}

// withMessage appends the message query parameter shown as a banner on the target page
func withMessage(path, message string) string {
	return path + "?" + queryMessage + "=" + url.QueryEscape(message)
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
