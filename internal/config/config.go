package config

import (
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/jobs"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           int      `envconfig:"PORT" default:"3003" desc:"Port where API will be served"`
	MetricsPort    int      `envconfig:"METRICS_PORT" default:"9090"  desc:"Port where Metrics will be served"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogPrettyPrint bool     `envconfig:"LOG_PRETTY" default:"false"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000" desc:"Origins allowed to call the API from a browser"`

	UpstreamURL                 string        `envconfig:"UPSTREAM_URL" required:"true" desc:"Base URL of the upstream dashboard API"`
	UpstreamTimeout             time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s" desc:"Timeout for each upstream request"`
	DeploymentsFetchConcurrency int           `envconfig:"DEPLOYMENTS_FETCH_CONCURRENCY" default:"1" desc:"Deployment history requests in flight per environment"`

	WatchPollInterval           time.Duration `envconfig:"WATCH_POLL_INTERVAL" default:"6s" desc:"Interval between job fetches of a watched project"`
	DeployPollDelay             time.Duration `envconfig:"DEPLOY_POLL_DELAY" default:"1500ms" desc:"Extra wait before the second job fetch after a deploy"`
	DeployPollInterval          time.Duration `envconfig:"DEPLOY_POLL_INTERVAL" default:"5s" desc:"Interval between job fetches after a deploy"`
	EnvironmentsRefreshInterval time.Duration `envconfig:"ENVIRONMENTS_REFRESH_INTERVAL" default:"30s" desc:"Interval between environment list refreshes. Zero disables"`
}

// PollOptions Job polling cadence
func (c Config) PollOptions() jobs.Options {
	return jobs.Options{
		WatchInterval:  c.WatchPollInterval,
		DeployDelay:    c.DeployPollDelay,
		DeployInterval: c.DeployPollInterval,
	}
}

func MustParse() Config {
	var s Config
	err := envconfig.Process("", &s)
	if err != nil {
		_ = envconfig.Usage("", &s)
		log.Fatal().Msg(err.Error())
	}

	return s
}
