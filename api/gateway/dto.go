package gateway

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/equinor/radix-deploy-dashboard/api/models"
)

// Wire formats of the upstream dashboard API

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// message Returns the error message of the envelope, empty when there is none
func (e errorEnvelope) message() string {
	raw := strings.TrimSpace(string(e.Error))
	if raw == "" || raw == "null" || raw == `""` {
		return ""
	}
	var text string
	if err := json.Unmarshal(e.Error, &text); err == nil {
		return text
	}
	return raw
}

type environmentsResponse struct {
	Environments []*environmentDTO `json:"environments"`
}

type environmentDTO struct {
	Name     string        `json:"name"`
	Projects []*projectDTO `json:"projects"`
}

type projectDTO struct {
	ID                int            `json:"id"`
	Name              string         `json:"name"`
	NameWithNamespace string         `json:"nameWithNamespace"`
	AvatarURL         string         `json:"avatarURL"`
	WebURL            string         `json:"webURL"`
	LastDeployment    *deploymentDTO `json:"lastDeployment"`
}

type deploymentsResponse struct {
	Deployments []*deploymentDTO `json:"deployments"`
}

type deploymentDTO struct {
	ID         int            `json:"id"`
	Ref        string         `json:"ref"`
	User       *models.User   `json:"user"`
	UpdatedAt  *time.Time     `json:"updatedAt"`
	Deployable *deployableDTO `json:"deployable"`
}

type deployableDTO struct {
	Pipeline struct {
		ID     int              `json:"id"`
		Status models.JobStatus `json:"status"`
	} `json:"pipeline"`
}

type branchesResponse struct {
	Branches []*branchDTO `json:"branches"`
}

type branchDTO struct {
	Name   string `json:"name"`
	Commit *struct {
		ID string `json:"id"`
	} `json:"commit"`
}

type jobResponse struct {
	Job *jobDTO `json:"job"`
}

type jobDTO struct {
	ID         int              `json:"id"`
	Ref        string           `json:"ref"`
	Status     models.JobStatus `json:"status"`
	WebURL     string           `json:"web_url"`
	FinishedAt *time.Time       `json:"finished_at"`
	User       *struct {
		Name      string `json:"name"`
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
	Pipeline *struct {
		ID int `json:"id"`
	} `json:"pipeline"`
}

type deployBranchRequest struct {
	Ref string `json:"ref"`
	Sha string `json:"sha"`
}

type deployByPrefixRequest struct {
	Query string `json:"query"`
}

func (dto *environmentDTO) toModel() *models.Environment {
	return &models.Environment{
		Name:     dto.Name,
		Projects: slice.Map(dto.Projects, func(p *projectDTO) *models.Project { return p.toModel() }),
	}
}

func (dto *projectDTO) toModel() *models.Project {
	return &models.Project{
		ID:                dto.ID,
		Name:              dto.Name,
		NameWithNamespace: dto.NameWithNamespace,
		AvatarURL:         dto.AvatarURL,
		WebURL:            dto.WebURL,
		LastDeployment:    dto.LastDeployment.toModel(),
	}
}

func (dto *deploymentDTO) toModel() *models.Deployment {
	if dto == nil {
		return nil
	}
	deployment := models.Deployment{
		ID:        dto.ID,
		Ref:       dto.Ref,
		UpdatedAt: dto.UpdatedAt,
		User:      dto.User,
	}
	if dto.Deployable != nil {
		deployment.Pipeline = models.Pipeline{
			ID:     dto.Deployable.Pipeline.ID,
			Status: dto.Deployable.Pipeline.Status,
		}
	}
	return &deployment
}

func (dto *branchDTO) toModel() *models.Branch {
	branch := models.Branch{Name: dto.Name}
	if dto.Commit != nil {
		branch.CommitID = dto.Commit.ID
	}
	return &branch
}

func (dto *jobDTO) toModel(projectID int) *models.Job {
	if dto == nil {
		return nil
	}
	job := models.Job{
		ID:         dto.ID,
		ProjectID:  projectID,
		Ref:        dto.Ref,
		Status:     dto.Status,
		WebURL:     dto.WebURL,
		FinishedAt: dto.FinishedAt,
	}
	if dto.User != nil {
		job.User = &models.User{Name: dto.User.Name, Username: dto.User.Username, AvatarURL: dto.User.AvatarURL}
	}
	if dto.Pipeline != nil {
		job.PipelineID = dto.Pipeline.ID
	}
	return &job
}
