package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/jrsteele09/coffee-shop-web/users"
	"github.com/rs/zerolog/log"
)

// View is what a page handler produces. A non-empty Redirect wins over the template.
type View struct {
	Template string
	Title    string
	Status   int
	Data     any
	Redirect string
	Refresh  *Refresh
}

// Refresh asks the browser to load URL after the given number of seconds
type Refresh struct {
	After int
	URL   string
}

// ViewFunc builds the view of one request. A returned error is shown through the error fallback.
type ViewFunc func(r *http.Request) (View, error)

// PageData is the model every template is executed with
type PageData struct {
	AppName string
	Title   string
	Path    string
	User    *users.User
	Nav     []NavItem
	Refresh *Refresh
	Data    any
}

// ErrorPageData feeds the error fallback
type ErrorPageData struct {
	RetryURL string
	HomeURL  string
	Detail   string // only filled in development
}

// renderView is the error boundary of a page: anything the view returns as an error, or fails
// to render, ends up on the fallback page instead of a half written response.
func (s *Server) renderView(view ViewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := view(r)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if v.Redirect != "" {
			redirectSuccess(w, r, v.Redirect)
			return
		}
		s.render(w, r, v)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, v View) {
	tmpl, ok := s.pages[v.Template]
	if !ok {
		s.renderError(w, r, fmt.Errorf("unknown template %q", v.Template))
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, s.pageData(r, v)); err != nil {
		s.renderError(w, r, fmt.Errorf("render %s: %w", v.Template, err))
		return
	}

	status := v.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) pageData(r *http.Request, v View) PageData {
	data := PageData{
		AppName: s.config.GetAppName(),
		Title:   v.Title,
		Path:    r.URL.Path,
		Refresh: v.Refresh,
		Data:    v.Data,
	}
	if sess := sessionFrom(r); sess != nil {
		if st := sess.Snapshot(); st.User != nil {
			data.User = st.User
			data.Nav = s.table.navFor(st.User)
		}
	}
	return data
}

// renderError shows the fallback page. The error text is only exposed in development.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Rendering error page")

	retry := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		retry = r.URL.Path
	}
	data := ErrorPageData{RetryURL: retry, HomeURL: RouteHome}
	if s.isDev() {
		data.Detail = err.Error()
	}

	var buf bytes.Buffer
	tmpl, ok := s.pages[pageError]
	if ok {
		err = tmpl.ExecuteTemplate(&buf, layoutTemplate, PageData{
			AppName: s.config.GetAppName(),
			Title:   errorTitle,
			Path:    r.URL.Path,
			Data:    data,
		})
	}
	if !ok || err != nil {
		http.Error(w, errorTitle, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}

const errorTitle = "Oops! Something went wrong"
