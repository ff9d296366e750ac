package utils

import (
	"net/http"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/metrics"
)

// DashboardMiddleware The middleware between router and handler functions
type DashboardMiddleware struct {
	path   string
	method string
	next   http.HandlerFunc
}

// NewDashboardMiddleware Constructor for the dashboard middleware
func NewDashboardMiddleware(path, method string, next http.HandlerFunc) *DashboardMiddleware {
	return &DashboardMiddleware{
		path:   path,
		method: method,
		next:   next,
	}
}

// Handle Wraps handler methods
func (handler *DashboardMiddleware) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	defer func() {
		httpDuration := time.Since(start)
		metrics.AddRequestDuration(handler.path, handler.method, httpDuration)
	}()

	handler.next(w, r)
}
