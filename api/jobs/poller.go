package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/metrics"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"k8s.io/utils/clock"
)

const (
	outcomeInFlight = "in_flight"
	outcomeSettled  = "settled"
	outcomeError    = "error"
)

// FetchFunc Fetches the current job of a project. A nil job means the project has none.
type FetchFunc func(ctx context.Context, key models.ProjectKey) (*models.Job, error)

// SettleFunc Called once when a session observes a job that is no longer in flight
type SettleFunc func(ctx context.Context, key models.ProjectKey, job *models.Job)

// Options Poll cadence
type Options struct {
	WatchInterval  time.Duration
	DeployDelay    time.Duration
	DeployInterval time.Duration
}

// DefaultOptions 6s watch interval, deploy polling after 1.5s delay every 5s
func DefaultOptions() Options {
	return Options{
		WatchInterval:  6000 * time.Millisecond,
		DeployDelay:    1500 * time.Millisecond,
		DeployInterval: 5000 * time.Millisecond,
	}
}

// Option Configures the poller
type Option func(*Poller)

// WithClock Use a custom clock, e.g. a fake clock in tests
func WithClock(clock clock.Clock) Option {
	return func(p *Poller) {
		p.clock = clock
	}
}

// WithOptions Use a custom poll cadence
func WithOptions(options Options) Option {
	return func(p *Poller) {
		p.options = options
	}
}

// Poller Runs at most one poll session per project
type Poller struct {
	clock   clock.Clock
	options Options
	fetch   FetchFunc
	settle  SettleFunc

	mu       sync.Mutex
	sessions map[models.ProjectKey]*Session
	wg       sync.WaitGroup
}

// NewPoller Constructor
func NewPoller(fetch FetchFunc, settle SettleFunc, options ...Option) *Poller {
	p := &Poller{
		clock:    clock.RealClock{},
		options:  DefaultOptions(),
		fetch:    fetch,
		settle:   settle,
		sessions: map[models.ProjectKey]*Session{},
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Watch Starts a watch session for the project bound to ctx. Returns the existing session
// unchanged when the project is already polled by a session that was not cancelled.
func (p *Poller) Watch(ctx context.Context, key models.ProjectKey) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if session, ok := p.live(key); ok {
		return session
	}
	return p.start(ctx, key, TriggerWatch)
}

// Track Polls the project with the deploy cadence. An existing session keeps its context
// and restarts its schedule; a cancelled one is replaced.
func (p *Poller) Track(ctx context.Context, key models.ProjectKey) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if session, ok := p.live(key); ok {
		select {
		case session.retrigger <- TriggerDeploy:
		default:
		}
		return session
	}
	return p.start(ctx, key, TriggerDeploy)
}

// State Watching while a session exists for the project
func (p *Poller) State(key models.ProjectKey) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live(key); ok {
		return Watching
	}
	return Idle
}

// Session The running session of a project, if any
func (p *Poller) Session(key models.ProjectKey) (*Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	session, ok := p.sessions[key]
	return session, ok
}

// Len Number of running sessions
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// live The session of a project unless it was cancelled and has yet to remove itself.
// Must be called with p.mu held.
func (p *Poller) live(key models.ProjectKey) (*Session, bool) {
	session, ok := p.sessions[key]
	if !ok || session.ctx.Err() != nil {
		return nil, false
	}
	return session, true
}

// must be called with p.mu held
func (p *Poller) start(ctx context.Context, key models.ProjectKey, trigger Trigger) *Session {
	session := newSession(ctx, key)
	p.sessions[key] = session
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(session, trigger)
	}()
	return session
}

// Wait Blocks until every session has ended. Sessions end when their context is cancelled
// or their job settles.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(session *Session, trigger Trigger) {
	defer close(session.done)
	defer session.cancel()
	defer p.remove(session)

	logger := log.Ctx(session.ctx).With().
		Str("environment", session.key.Environment).
		Int("projectId", session.key.ProjectID).
		Logger()
	metrics.IncPollSessions(string(trigger))
	defer metrics.DecPollSessions(string(trigger))
	logger.Debug().Str("trigger", string(trigger)).Msg("Poll session started")

	current, next, fetches := trigger, p.options.schedule(trigger), 0
	for {
		if delay := next(fetches); delay > 0 {
			timer := p.clock.NewTimer(delay)
			select {
			case <-session.ctx.Done():
				timer.Stop()
				logger.Debug().Msg("Poll session cancelled")
				return
			case retrigger := <-session.retrigger:
				timer.Stop()
				current, next, fetches = retrigger, p.options.schedule(retrigger), 0
				continue
			case <-timer.C():
			}
		}

		if session.ctx.Err() != nil {
			logger.Debug().Msg("Poll session cancelled")
			return
		}
		job, err := p.fetch(session.ctx, session.key)
		fetches++
		if session.ctx.Err() != nil {
			logger.Debug().Msg("Poll session cancelled")
			return
		}
		if err != nil {
			metrics.AddPollFetch(string(current), outcomeError)
			logger.Warn().Err(err).Msg("Failed to fetch current job, keep watching")
			continue
		}
		if job.IsInFlight() {
			metrics.AddPollFetch(string(current), outcomeInFlight)
			logger.Trace().Str("status", string(job.Status)).Msg("Job in flight")
			continue
		}

		metrics.AddPollFetch(string(current), outcomeSettled)
		if retrigger, ok := p.release(session); ok {
			current, next, fetches = retrigger, p.options.schedule(retrigger), 0
			continue
		}
		logSettled(&logger, job)
		p.settle(session.ctx, session.key, job)
		return
	}
}

// release Removes the session unless a deploy restarted it after the last fetch was issued
func (p *Poller) release(session *Session) (Trigger, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case retrigger := <-session.retrigger:
		return retrigger, true
	default:
	}
	if p.sessions[session.key] == session {
		delete(p.sessions, session.key)
	}
	return "", false
}

func (p *Poller) remove(session *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessions[session.key] == session {
		delete(p.sessions, session.key)
	}
}

func logSettled(logger *zerolog.Logger, job *models.Job) {
	if job == nil {
		logger.Debug().Msg("Project has no current job, poll session settled")
		return
	}
	logger.Debug().Str("status", string(job.Status)).Msg("Job settled")
}
