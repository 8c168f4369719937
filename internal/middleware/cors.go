package middleware

import (
	"net/http"

	"hoa-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS wraps the whole router so preflight requests are answered before
// route matching. Clients authenticate with bearer tokens, never cookies.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CorsAllowedOrigins,
		AllowedMethods: cfg.Server.CorsAllowedMethods,
		AllowedHeaders: cfg.Server.CorsAllowedHeaders,
		// receipts and exports are downloaded by script
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
		MaxAge:         600,
	}).Handler
}
