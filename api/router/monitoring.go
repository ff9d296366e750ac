package router

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const metricsRoute = "/metrics"

// NewMonitoringHandler Serves the dashboard metrics gathered by gatherer, and the health check,
// on the monitoring port
func NewMonitoringHandler(gatherer prometheus.Gatherer) http.Handler {
	serveMux := http.NewServeMux()
	serveMux.Handle("/health/", createHealthHandler())
	serveMux.Handle("GET "+metricsRoute, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:      scrapeErrorLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	}))

	return withMiddleware(serveMux)
}

// scrapeErrorLogger Logs metrics that failed to gather; the scrape still serves the rest
type scrapeErrorLogger struct{}

func (scrapeErrorLogger) Println(v ...interface{}) {
	log.Warn().Msg(fmt.Sprint(v...))
}
