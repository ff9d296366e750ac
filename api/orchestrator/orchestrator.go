package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/gateway"
	"github.com/equinor/radix-deploy-dashboard/api/jobs"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"
)

// Option Configures the orchestrator
type Option func(*Orchestrator)

// WithClock Clock driving poll sessions and the periodic environments refresh
func WithClock(clock clock.WithTicker) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithPollOptions Poll cadence of job sessions
func WithPollOptions(options jobs.Options) Option {
	return func(o *Orchestrator) {
		o.pollOptions = options
	}
}

// Orchestrator Loads entities into the store, issues deploys and keeps job poll sessions
// bound to open environment scopes
type Orchestrator struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	gateway     gateway.Client
	store       *store.Store
	poller      *jobs.Poller
	clock       clock.WithTicker
	pollOptions jobs.Options

	removeListener func()

	guardsMu sync.Mutex
	guards   map[string]*semaphore.Weighted

	intents *intents

	scopesMu      sync.Mutex
	scopes        map[string]*EnvironmentScope
	projectScopes map[models.ProjectKey]*projectScope
}

// New Constructor. Poll sessions not bound to a scope, and background fetches, live until ctx is
// cancelled or Close is called.
func New(ctx context.Context, client gateway.Client, entityStore *store.Store, options ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(ctx)
	o := &Orchestrator{
		ctx:           ctx,
		cancel:        cancel,
		gateway:       client,
		store:         entityStore,
		clock:         clock.RealClock{},
		pollOptions:   jobs.DefaultOptions(),
		guards:        map[string]*semaphore.Weighted{},
		intents:       newIntents(),
		scopes:        map[string]*EnvironmentScope{},
		projectScopes: map[models.ProjectKey]*projectScope{},
	}
	for _, option := range options {
		option(o)
	}
	o.poller = jobs.NewPoller(o.fetchJob, o.settleJob, jobs.WithClock(o.clock), jobs.WithOptions(o.pollOptions))
	o.removeListener = entityStore.AddListener(o.onStoreChange)
	return o
}

// Close Cancels every poll session and background fetch, and waits for them to end
func (o *Orchestrator) Close() {
	o.removeListener()
	o.cancel()
	o.wg.Wait()
	o.poller.Wait()
}

// PollState Whether the current job of a project is being polled
func (o *Orchestrator) PollState(key models.ProjectKey) jobs.State {
	return o.poller.State(key)
}

// PollSession The running poll session of a project, if any
func (o *Orchestrator) PollSession(key models.ProjectKey) (*jobs.Session, bool) {
	return o.poller.Session(key)
}

// RunEnvironmentsRefresh Refreshes the environments now and then every interval until ctx is done
func (o *Orchestrator) RunEnvironmentsRefresh(ctx context.Context, interval time.Duration) {
	logger := log.Ctx(ctx)
	ticker := o.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := o.RefreshEnvironments(ctx); err != nil {
			logger.Warn().Err(err).Msg("Periodic environments refresh failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-o.ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

// onStoreChange A job observed in flight for a project of an open scope starts a watch session
func (o *Orchestrator) onStoreChange(change store.Change) {
	if change.Collection != store.Jobs || change.State != store.Loaded || change.Environment == "" {
		return
	}
	key := models.ProjectKey{Environment: change.Environment, ProjectID: change.ProjectID}
	if !o.store.Job(key).Data.IsInFlight() {
		return
	}
	if ctx, ok := o.scopeContext(key); ok {
		o.poller.Watch(ctx, key)
	}
}

func (o *Orchestrator) fetchJob(ctx context.Context, key models.ProjectKey) (*models.Job, error) {
	return o.RefreshJob(ctx, key.Environment, key.ProjectID)
}

// settleJob The job of a polled project left the in-flight statuses
func (o *Orchestrator) settleJob(ctx context.Context, key models.ProjectKey, job *models.Job) {
	logger := log.Ctx(ctx)
	o.intents.confirm(key, job)

	if projectIDs, err := o.settledProjectIDs(ctx, key); err != nil {
		logger.Warn().Err(err).Str("environment", key.Environment).Msg("Deployment history not refreshed")
	} else if err := o.RefreshDeployments(ctx, key.Environment, projectIDs); err != nil {
		logger.Warn().Err(err).Str("environment", key.Environment).Msg("Failed to refresh deployment history")
	}
	if _, err := o.RefreshJob(ctx, key.Environment, key.ProjectID); err != nil {
		logger.Warn().Err(err).Str("project", key.String()).Msg("Failed to re-fetch settled job")
	}
}

// settledProjectIDs The projects whose history is reloaded when a job of the environment settles.
// Those of the open scopes showing the project, else those of the loaded environment.
func (o *Orchestrator) settledProjectIDs(ctx context.Context, key models.ProjectKey) ([]int, error) {
	if projectIDs, ok := o.scopeProjectIDs(key); ok {
		return projectIDs, nil
	}
	snapshot, err := o.awaitEnvironment(ctx, key.Environment)
	if err != nil {
		return nil, err
	}
	if snapshot.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, key.Environment)
	}
	return snapshot.Data.ProjectIDs(), nil
}

// acquire Takes the submission guard of a form. A second submission fails until the first releases it.
func (o *Orchestrator) acquire(form string) (func(), error) {
	o.guardsMu.Lock()
	guard, ok := o.guards[form]
	if !ok {
		guard = semaphore.NewWeighted(1)
		o.guards[form] = guard
	}
	o.guardsMu.Unlock()

	if !guard.TryAcquire(1) {
		return nil, ErrSubmissionInFlight
	}
	return func() { guard.Release(1) }, nil
}
