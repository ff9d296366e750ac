package orchestrator

import (
	"sync"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/oklog/ulid/v2"
)

// IntentState Progress of a deploy intent
type IntentState string

const (
	// IntentPending The deploy request has not been answered yet
	IntentPending IntentState = "pending"
	// IntentAccepted The deploy was accepted; waiting for the job to settle
	IntentAccepted IntentState = "accepted"
	// IntentConfirmed A poll observed the job in a terminal status
	IntentConfirmed IntentState = "confirmed"
	// IntentRejected The deploy request failed
	IntentRejected IntentState = "rejected"
)

// Intent An optimistic branch selection issued by a deploy, confirmed by a later poll
// swagger:model Intent
type Intent struct {
	// ID of the intent
	ID string `json:"id"`
	// Environment of the project
	Environment string `json:"environment"`
	// ProjectID the branch is deployed to
	ProjectID int `json:"projectId"`
	// Branch being deployed
	Branch string `json:"branch"`
	// PreviousBranch selected before the deploy, restored on rejection
	PreviousBranch string `json:"previousBranch"`
	// State of the intent
	State IntentState `json:"state"`
	// Status of the job that confirmed the intent
	Status models.JobStatus `json:"status,omitempty"`
	// Message of a rejected deploy, verbatim from upstream
	Message string `json:"message,omitempty"`
	// CreatedAt when the deploy was requested
	CreatedAt time.Time `json:"createdAt"`
}

// IsSelecting True while the intent decides the branch selection of its project
func (i *Intent) IsSelecting() bool {
	return i != nil && (i.State == IntentPending || i.State == IntentAccepted)
}

// IsPending True until the deploy request has been answered
func (i *Intent) IsPending() bool {
	return i != nil && i.State == IntentPending
}

// intents The latest deploy intent of each project
type intents struct {
	mu     sync.Mutex
	latest map[models.ProjectKey]*Intent
}

func newIntents() *intents {
	return &intents{latest: map[models.ProjectKey]*Intent{}}
}

func (s *intents) begin(key models.ProjectKey, branch, previousBranch string, now time.Time) Intent {
	intent := &Intent{
		ID:             ulid.Make().String(),
		Environment:    key.Environment,
		ProjectID:      key.ProjectID,
		Branch:         branch,
		PreviousBranch: previousBranch,
		State:          IntentPending,
		CreatedAt:      now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key] = intent
	return *intent
}

// settle Moves the intent to accepted or rejected, unless a newer intent replaced it
func (s *intents) settle(key models.ProjectKey, id string, err error, message string) Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent := s.latest[key]
	if intent == nil || intent.ID != id {
		return Intent{ID: id, Environment: key.Environment, ProjectID: key.ProjectID}
	}
	if err != nil {
		intent.State, intent.Message = IntentRejected, message
	} else {
		intent.State = IntentAccepted
	}
	return *intent
}

// confirm An accepted intent is confirmed by the terminal job of its project
func (s *intents) confirm(key models.ProjectKey, job *models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent := s.latest[key]
	if intent == nil || intent.State != IntentAccepted {
		return
	}
	intent.State = IntentConfirmed
	if job != nil {
		intent.Status = job.Status
	}
}

func (s *intents) get(key models.ProjectKey) (*Intent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.latest[key]
	if !ok {
		return nil, false
	}
	copied := *intent
	return &copied, true
}

// Intent The latest deploy intent of a project
func (o *Orchestrator) Intent(key models.ProjectKey) (*Intent, bool) {
	return o.intents.get(key)
}

// SelectedBranch The branch shown as selected for a project: the branch of a selecting intent,
// else the ref of the current job, else the ref of the last deployment
func SelectedBranch(intent *Intent, job *models.Job, project *models.Project) string {
	switch {
	case intent.IsSelecting():
		return intent.Branch
	case job != nil:
		return job.Ref
	case project != nil && project.LastDeployment != nil:
		return project.LastDeployment.Ref
	default:
		return ""
	}
}
