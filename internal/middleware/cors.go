package middleware

import (
	"net/http"

	"github.com/jrsteele09/coffee-shop-web/internal/config"
)

// Cors answers preflight requests and sets the CORS headers for origins listed in cfg.
// A "*" entry allows any origin but never with credentials.
func Cors(cfg config.CorsConfig) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// No Origin header = same-origin request, no CORS headers needed
			if origin == "" {
				next(w, r)
				return
			}

			allowedOrigins := cfg.GetAllowedOrigins()
			isAllowed := allowedOrigins.IsAllowedOrigin(origin)
			isWildcard := allowedOrigins.IsAllowedOrigin("*")

			switch {
			case isAllowed:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			case isWildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == http.MethodOptions {
				if isAllowed || isWildcard {
					w.Header().Set("Access-Control-Allow-Methods", cfg.GetAllowedMethods())
					w.Header().Set("Access-Control-Allow-Headers", cfg.GetAllowedHeaders())
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
				// Not allowed: 200 with no CORS headers, the browser blocks the real request
				w.WriteHeader(http.StatusOK)
				return
			}

			next(w, r)
		}
	}
}
