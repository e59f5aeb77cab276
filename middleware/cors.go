package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"orgdash/config"
)

func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	wildcard := len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*")
	origins := cfg.AllowedOrigins
	if wildcard {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		// Credentials cannot be combined with a wildcard origin.
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}
