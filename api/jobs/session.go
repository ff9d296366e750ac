package jobs

import (
	"context"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/models"
)

// Trigger What started (or last restarted) a poll session
type Trigger string

const (
	// TriggerWatch A job was observed in flight; fetch after the watch interval, then repeat
	TriggerWatch Trigger = "watch"
	// TriggerDeploy A deploy was accepted; fetch immediately, then after the deploy delay and interval, then repeat
	TriggerDeploy Trigger = "deploy"
)

// State of a project's poll session
type State int

const (
	Idle State = iota
	Watching
)

func (s State) String() string {
	if s == Watching {
		return "watching"
	}
	return "idle"
}

// Session Polls the current job of one project until it leaves the in-flight statuses
type Session struct {
	key       models.ProjectKey
	ctx       context.Context
	cancel    context.CancelFunc
	retrigger chan Trigger
	done      chan struct{}
}

func newSession(ctx context.Context, key models.ProjectKey) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		key:       key,
		ctx:       ctx,
		cancel:    cancel,
		retrigger: make(chan Trigger, 1),
		done:      make(chan struct{}),
	}
}

// Key The project polled by the session
func (s *Session) Key() models.ProjectKey {
	return s.key
}

// Done Closed when the session has stopped, either settled or cancelled
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Cancel Stops the session. A cancelled session never fetches again and never settles.
func (s *Session) Cancel() {
	s.cancel()
}

// schedule Delay before the next fetch, given the number of fetches since the trigger
type schedule func(fetches int) time.Duration

func (o Options) schedule(trigger Trigger) schedule {
	if trigger == TriggerDeploy {
		return func(fetches int) time.Duration {
			switch fetches {
			case 0:
				return 0
			case 1:
				return o.DeployDelay + o.DeployInterval
			default:
				return o.DeployInterval
			}
		}
	}
	return func(int) time.Duration {
		return o.WatchInterval
	}
}
