// Deploy Dashboard Api Server.
// Serves environments, per-project deploy state and deploy triggers on top of the upstream dashboard API.
// Schemes: http, https
// BasePath: /api/v1
// Version: 1.0.0
//
// Consumes:
// - application/json
//
// Produces:
// - application/json
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/configuration"
	"github.com/equinor/radix-deploy-dashboard/api/deployments"
	"github.com/equinor/radix-deploy-dashboard/api/environments"
	"github.com/equinor/radix-deploy-dashboard/api/gateway"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/router"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/equinor/radix-deploy-dashboard/internal/config"
	"github.com/equinor/radix-deploy-dashboard/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	c := config.MustParse()
	initLogger(c)

	ctx, stop := signal.NotifyContext(log.Logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c); err != nil {
		log.Fatal().Err(err).Msg("Deploy dashboard api stopped")
	}
	log.Info().Msg("Deploy dashboard api stopped")
}

func run(ctx context.Context, c config.Config) error {
	client, err := gateway.NewClient(c.UpstreamURL,
		gateway.WithRequestTimeout(c.UpstreamTimeout),
		gateway.WithDeploymentsConcurrency(c.DeploymentsFetchConcurrency),
	)
	if err != nil {
		return err
	}

	entityStore := store.New()
	o := orchestrator.New(ctx, client, entityStore, orchestrator.WithPollOptions(c.PollOptions()))
	defer o.Close()

	if c.EnvironmentsRefreshInterval > 0 {
		go o.RunEnvironmentsRefresh(ctx, c.EnvironmentsRefreshInterval)
	}

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", c.Port), Handler: router.NewAPIHandler(c.AllowedOrigins, getControllers(entityStore, o)...)},
		{Addr: fmt.Sprintf(":%d", c.MetricsPort), Handler: router.NewMonitoringHandler(prometheus.DefaultGatherer)},
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
		g.Go(func() error {
			log.Ctx(ctx).Info().Msgf("Serving on address %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msgf("Failed to shut down server %s", srv.Addr)
			}
		}
		return nil
	})
	return g.Wait()
}

func getControllers(entityStore *store.Store, o *orchestrator.Orchestrator) []models.Controller {
	return []models.Controller{
		configuration.NewConfigurationController(configuration.Init(entityStore, o)),
		environments.NewEnvironmentController(environments.Init(entityStore, o)),
		deployments.NewDeploymentController(deployments.Init(o)),
	}
}

func initLogger(c config.Config) {
	logLevel, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	zerolog.DurationFieldUnit = time.Millisecond
	if c.LogPrettyPrint {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	zerolog.DefaultContextLogger = &log.Logger
	if err != nil {
		log.Warn().Msgf("Invalid log level %q, using %s", c.LogLevel, logLevel)
	}
}
