package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var corsAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORS answers browser preflights and stamps the fixed allow headers on every
// response, including plain OPTIONS requests that carry no Origin.
func CORS() func(http.Handler) http.Handler {
	preflight := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: corsAllowedHeaders,
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         300,
	})
	allowHeaders := strings.Join(corsAllowedHeaders, ", ")
	return func(next http.Handler) http.Handler {
		wrapped := preflight(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			wrapped.ServeHTTP(w, r)
		})
	}
}

// Preflight is the explicit OPTIONS handler: headers only, empty body.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
