package cors

import (
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewMiddleware Allows the dashboard front-end served from allowedOrigins to call the API
func NewMiddleware(allowedOrigins []string) *cors.Cors {
	corsOptions := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		MaxAge:           600,
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS", "DELETE"},
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		corsOptions.Debug = true
		corsLogger := log.Logger.With().Str("pkg", "cors-middleware").Logger()
		corsOptions.Logger = &corsLogger
		corsOptions.AllowedHeaders = append(corsOptions.AllowedHeaders, "X-Requested-With")
	}

	return cors.New(corsOptions)
}
