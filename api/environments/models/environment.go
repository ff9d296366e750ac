package models

import (
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/store"
)

// StatusIcon Icon class rendered for a job or deployment status
type StatusIcon string

const (
	StatusIconSyncing StatusIcon = "syncing"
	StatusIconSuccess StatusIcon = "success"
	StatusIconFailure StatusIcon = "failure"
	StatusIconNone    StatusIcon = "none"
)

// EnvironmentSummary An environment in the environment list
// swagger:model EnvironmentSummary
type EnvironmentSummary struct {
	// Name of the environment
	//
	// required: true
	Name string `json:"name"`

	// ProjectCount Number of projects bound to the environment
	ProjectCount int `json:"projectCount"`
}

// EnvironmentList The environments matching a search, with the load-state of the list
// swagger:model EnvironmentList
type EnvironmentList struct {
	State        store.LoadState      `json:"state"`
	Error        string               `json:"error,omitempty"`
	Environments []EnvironmentSummary `json:"environments"`
}

// Environment View of one environment and its projects
// swagger:model Environment
type Environment struct {
	// Name of the environment
	//
	// required: true
	Name string `json:"name"`

	// DeploymentsState load-state of the deployment histories
	DeploymentsState store.LoadState `json:"deploymentsState"`

	// DeploymentsError message of a failed deployment history load
	DeploymentsError string `json:"deploymentsError,omitempty"`

	// Projects of the environment in listing order
	Projects []Project `json:"projects"`
}

// Project View of one project row
// swagger:model Project
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	NameWithNamespace string `json:"nameWithNamespace"`
	AvatarURL         string `json:"avatarURL"`
	WebURL            string `json:"webURL"`

	// SelectedBranch shown in the branch select
	SelectedBranch string `json:"selectedBranch"`

	// Branches names offered by the branch select
	Branches []string `json:"branches"`

	// BranchesState load-state of the branches
	BranchesState store.LoadState `json:"branchesState"`

	// BranchesError message of a failed branches load
	BranchesError string `json:"branchesError,omitempty"`

	// SelectDisabled true while a job is in flight or a deploy request is pending
	SelectDisabled bool `json:"selectDisabled"`

	// StatusIcon of the current job, else of the last deployment
	StatusIcon StatusIcon `json:"statusIcon"`

	// StatusTitle the status the icon was derived from
	StatusTitle string `json:"statusTitle,omitempty"`

	// StatusLink link to the current job
	StatusLink string `json:"statusLink,omitempty"`

	// JobState load-state of the jobs
	JobState store.LoadState `json:"jobState"`

	// Watching true while the current job is polled
	Watching bool `json:"watching"`

	// Intent the latest deploy intent of the project
	Intent *orchestrator.Intent `json:"intent,omitempty"`

	// LastDeployment cell content
	LastDeployment LastDeployment `json:"lastDeployment"`

	// User who triggered the current job, else the last deployment
	User *UserLink `json:"user,omitempty"`

	// History rows of the deployment history, nil unless loaded
	History []DeploymentRow `json:"history"`
}

// LastDeploymentKind What the last deployment cell shows
type LastDeploymentKind string

const (
	// LastDeploymentNone The project was never deployed
	LastDeploymentNone LastDeploymentKind = "none"
	// LastDeploymentLoading Jobs are not loaded yet
	LastDeploymentLoading LastDeploymentKind = "loading"
	// LastDeploymentRunning The current job is in flight
	LastDeploymentRunning LastDeploymentKind = "running"
	// LastDeploymentFinished A finished pipeline with its time
	LastDeploymentFinished LastDeploymentKind = "finished"
)

// LastDeployment Last deployment cell of a project row
type LastDeployment struct {
	Kind LastDeploymentKind `json:"kind"`
	Link string             `json:"link,omitempty"`
	Time *time.Time         `json:"time,omitempty"`
}

// DeploymentRow One row of the deployment history
type DeploymentRow struct {
	ID           int        `json:"id"`
	Ref          string     `json:"ref"`
	BranchLink   string     `json:"branchLink"`
	PipelineID   int        `json:"pipelineId"`
	PipelineLink string     `json:"pipelineLink"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	StatusIcon   StatusIcon `json:"statusIcon"`
	Status       string     `json:"status"`
	User         *UserLink  `json:"user,omitempty"`
}

// UserLink A user and the link to their profile
type UserLink struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarURL"`
	Link      string `json:"link"`
}

// Scope An open environment scope and the view loaded when it was opened
// swagger:model Scope
type Scope struct {
	// ID of the scope, used to close it
	//
	// required: true
	ID string `json:"id"`

	// Environment loaded by the scope
	Environment *Environment `json:"environment"`
}

// Change A store transition streamed to clients of an environment. Clients re-read the
// environment view when they receive one.
// swagger:model Change
type Change struct {
	// Collection that changed: environments, branches, jobs, deployments or config
	Collection string `json:"collection"`

	// State the collection moved to
	State store.LoadState `json:"state"`

	// Environment of the change, empty for environments and config
	Environment string `json:"environment,omitempty"`

	// ProjectID of a branches or jobs change
	ProjectID int `json:"projectId,omitempty"`

	// Error of a failed fetch
	Error string `json:"error,omitempty"`
}
