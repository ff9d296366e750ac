package models

import (
	"time"

	"github.com/equinor/radix-common/utils/slice"
)

// JobStatus Status of a pipeline job as reported by the upstream platform
type JobStatus string

const (
	JobStatusCreated  JobStatus = "created"
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusSuccess  JobStatus = "success"
	JobStatusFailed   JobStatus = "failed"
	JobStatusCanceled JobStatus = "canceled"
	JobStatusSkipped  JobStatus = "skipped"
	// JobStatusManual is reported for jobs that were never started
	JobStatusManual JobStatus = "manual"
)

var (
	inFlightJobStatuses = []JobStatus{JobStatusCreated, JobStatusPending, JobStatusRunning}
	failedJobStatuses   = []JobStatus{JobStatusFailed, JobStatusCanceled, JobStatusSkipped}
)

// IsInFlight True while the job is created, pending or running
func (s JobStatus) IsInFlight() bool {
	return slice.Any(inFlightJobStatuses, func(status JobStatus) bool { return status == s })
}

// IsFailure True for failed, canceled and skipped jobs
func (s JobStatus) IsFailure() bool {
	return slice.Any(failedJobStatuses, func(status JobStatus) bool { return status == s })
}

// Job The current pipeline job of a project
// swagger:model Job
type Job struct {
	// ID of the upstream job
	ID int `json:"id"`

	// ProjectID the job belongs to
	ProjectID int `json:"projectId"`

	// Ref Branch name the job runs for
	Ref string `json:"ref"`

	// Status of the job
	Status JobStatus `json:"status"`

	// WebURL Link to the job in the upstream platform
	WebURL string `json:"webURL"`

	// FinishedAt when the job reached a terminal status
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	// User who triggered the job
	User *User `json:"user,omitempty"`

	// PipelineID of the pipeline the job belongs to
	PipelineID int `json:"pipelineId,omitempty"`
}

// IsInFlight True when the job exists and has an in-flight status
func (j *Job) IsInFlight() bool {
	return j != nil && j.Status.IsInFlight()
}
