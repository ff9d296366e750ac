package router

import (
	"net/http"

	"github.com/equinor/radix-deploy-dashboard/api/middleware/cors"
	"github.com/equinor/radix-deploy-dashboard/api/middleware/logger"
	"github.com/equinor/radix-deploy-dashboard/api/middleware/recovery"
	"github.com/equinor/radix-deploy-dashboard/api/utils"
	"github.com/equinor/radix-deploy-dashboard/models"
	"github.com/gorilla/mux"
	"github.com/urfave/negroni/v3"
)

const (
	apiVersionRoute = "/api/v1"
)

// NewAPIHandler Constructor function
func NewAPIHandler(allowedOrigins []string, controllers ...models.Controller) http.Handler {
	serveMux := http.NewServeMux()
	serveMux.Handle("/health/", createHealthHandler())
	serveMux.Handle("/api/", createApiRouter(controllers))

	return withMiddleware(serveMux, cors.NewMiddleware(allowedOrigins))
}

// withMiddleware Recovers panics, then runs the given middleware, then logs each request
func withMiddleware(handler http.Handler, middleware ...negroni.Handler) http.Handler {
	n := negroni.New(recovery.NewMiddleware())
	for _, m := range middleware {
		n.Use(m)
	}
	n.Use(logger.NewZerologRequestIdMiddleware())
	n.Use(logger.NewZerologRequestDetailsMiddleware())
	n.Use(logger.NewZerologResponseLoggerMiddleware())
	n.UseHandler(handler)

	return n
}

func createApiRouter(controllers []models.Controller) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, controller := range controllers {
		for _, route := range controller.GetRoutes() {
			path := apiVersionRoute + route.Path
			handler := utils.NewDashboardMiddleware(path, route.Method, route.HandlerFunc)
			router.HandleFunc(path, handler.Handle).Methods(route.Method)
		}
	}
	return router
}

func createHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
