package recovery

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/negroni/v3"
)

// NewMiddleware Turns a panicking handler into a 500 response and logs the panic with the request logger
func NewMiddleware() *negroni.Recovery {
	rec := negroni.NewRecovery()
	rec.PrintStack = false
	rec.Logger = &log.Logger
	rec.PanicHandlerFunc = func(info *negroni.PanicInformation) {
		log.Ctx(info.Request.Context()).Error().
			Interface("panic", info.RecoveredPanic).
			Str("path", info.RequestDescription()).
			Msg("Recovered from panic in request handler")
	}
	return rec
}
