package logger

import (
	"net"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/negroni/v3"
)

// RequestIdHeader Response header carrying the id attached to every log line of the request
const RequestIdHeader = "X-Request-Id"

// NewZerologResponseLoggerMiddleware Logs one line per response. Client errors log as warnings, server errors as errors.
func NewZerologResponseLoggerMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logResponse(zerolog.Ctx(r.Context()), m)
	}
}

func logResponse(logger *zerolog.Logger, m httpsnoop.Metrics) {
	level := zerolog.InfoLevel
	switch {
	case m.Code >= http.StatusInternalServerError:
		level = zerolog.ErrorLevel
	case m.Code >= http.StatusBadRequest:
		level = zerolog.WarnLevel
	}

	logger.WithLevel(level).
		Int("status", m.Code).
		Int64("body_size", m.Written).
		Int64("elapsed_ms", m.Duration.Milliseconds()).
		Msg(http.StatusText(m.Code))
}

// NewZerologRequestIdMiddleware Reuses an incoming request id or generates one, and echoes it in the response
func NewZerologRequestIdMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		requestId := r.Header.Get(RequestIdHeader)
		if requestId == "" {
			requestId = xid.New().String()
		}
		w.Header().Set(RequestIdHeader, requestId)

		logger := log.Ctx(r.Context()).With().Str("request_id", requestId).Logger()
		next(w, r.WithContext(logger.WithContext(r.Context())))
	}
}

// NewZerologRequestDetailsMiddleware Adds method, path and client details to the request logger
func NewZerologRequestDetailsMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		remoteIp, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			remoteIp = r.RemoteAddr
		}
		logCtx := log.Ctx(r.Context()).With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", remoteIp).
			Str("user_agent", r.UserAgent())
		if r.URL.RawQuery != "" {
			logCtx = logCtx.Str("query", r.URL.RawQuery)
		}
		logger := logCtx.Logger()

		next(w, r.WithContext(logger.WithContext(r.Context())))
	}
}
