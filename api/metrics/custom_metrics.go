package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	deploysTriggeredMetric       = "radix_dashboard_deploys_triggered"
	pollFetchesMetric            = "radix_dashboard_poll_fetches"
	pollSessionsActiveMetric     = "radix_dashboard_poll_sessions_active"
	gatewayRequestDurationMetric = "radix_dashboard_gateway_request_duration_seconds"
	requestDurationMetric        = "radix_dashboard_request_duration_seconds"
	requestDurationBucketMetric  = "radix_dashboard_request_duration_seconds_hist"
	storeTransitionsMetric       = "radix_dashboard_store_transitions"

	environmentLabel = "environment"
	kindLabel        = "kind"
	resultLabel      = "result"
	triggerLabel     = "trigger"
	outcomeLabel     = "outcome"
	operationLabel   = "operation"
	collectionLabel  = "collection"
	stateLabel       = "state"
	pathLabel        = "path"
	methodLabel      = "method"
)

var (
	nrDeploysTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: deploysTriggeredMetric,
			Help: "The total number of deploy requests sent upstream",
		}, []string{environmentLabel, kindLabel, resultLabel})
	nrPollFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: pollFetchesMetric,
			Help: "The total number of job fetches issued by poll sessions",
		}, []string{triggerLabel, outcomeLabel})
	pollSessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: pollSessionsActiveMetric,
			Help: "The number of poll sessions currently watching a job",
		}, []string{triggerLabel})
	nrStoreTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: storeTransitionsMetric,
			Help: "The total number of entity store load-state transitions",
		}, []string{collectionLabel, stateLabel})
	gatewayResTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    gatewayRequestDurationMetric,
			Help:    "Upstream request duration seconds",
			Buckets: DefaultBuckets(),
		},
		[]string{operationLabel},
	)
	resTime = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       requestDurationMetric,
			Help:       "Request duration seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{pathLabel, methodLabel},
	)
	resTimeBucket = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    requestDurationBucketMetric,
			Help:    "Request duration seconds bucket",
			Buckets: DefaultBuckets(),
		},
		[]string{pathLabel, methodLabel},
	)
)

func init() {
	prometheus.MustRegister(resTime)
	prometheus.MustRegister(resTimeBucket)
}

func DefaultBuckets() []float64 {
	return []float64{0.03, 0.1, 0.3, 1, 2, 3, 5, 10}
}

// AddDeployTriggered Deploy request sent upstream for an environment. kind is branch or prefix.
func AddDeployTriggered(envName, kind, result string) {
	nrDeploysTriggered.With(prometheus.Labels{environmentLabel: envName, kindLabel: kind, resultLabel: result}).Inc()
}

// AddPollFetch Job fetched by a poll session
func AddPollFetch(trigger, outcome string) {
	nrPollFetches.WithLabelValues(trigger, outcome).Inc()
}

// IncPollSessions A poll session started watching
func IncPollSessions(trigger string) {
	pollSessionsActive.WithLabelValues(trigger).Inc()
}

// DecPollSessions A poll session stopped watching
func DecPollSessions(trigger string) {
	pollSessionsActive.WithLabelValues(trigger).Dec()
}

// AddStoreTransition Entity store collection moved to a load-state
func AddStoreTransition(collection, state string) {
	nrStoreTransitions.WithLabelValues(collection, state).Inc()
}

// AddGatewayRequestDuration Add upstream request duration for an operation
func AddGatewayRequestDuration(operation string, duration time.Duration) {
	gatewayResTime.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddRequestDuration Add request duration for given endpoint
func AddRequestDuration(path, method string, duration time.Duration) {
	resTime.WithLabelValues(path, method).Observe(duration.Seconds())
	resTimeBucket.WithLabelValues(path, method).Observe(duration.Seconds())
}
