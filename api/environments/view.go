package environments

import (
	"fmt"
	"strings"

	"github.com/equinor/radix-common/utils/slice"
	environmentModels "github.com/equinor/radix-deploy-dashboard/api/environments/models"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/store"
)

// ViewInput Everything an environment view is composed from
type ViewInput struct {
	Environment *models.Environment
	Config      models.Config
	Branches    map[int]store.Snapshot[[]*models.Branch]
	Jobs        map[int]store.Snapshot[*models.Job]
	Deployments store.Snapshot[map[int][]*models.Deployment]
	Intents     map[int]*orchestrator.Intent
	Watching    map[int]bool
}

// BuildEnvironmentView Composes the view of an environment. Pure; recomputed on every read.
func BuildEnvironmentView(input ViewInput) *environmentModels.Environment {
	view := environmentModels.Environment{
		Name:             input.Environment.Name,
		DeploymentsState: input.Deployments.State,
		DeploymentsError: errorMessage(input.Deployments.Err),
		Projects:         make([]environmentModels.Project, 0, len(input.Environment.Projects)),
	}
	for _, project := range input.Environment.Projects {
		view.Projects = append(view.Projects, buildProject(input, project))
	}
	return &view
}

func buildProject(input ViewInput, project *models.Project) environmentModels.Project {
	branches := input.Branches[project.ID]
	jobs := input.Jobs[project.ID]
	job := jobs.Data
	intent := input.Intents[project.ID]

	row := environmentModels.Project{
		ID:                project.ID,
		Name:              project.Name,
		NameWithNamespace: project.NameWithNamespace,
		AvatarURL:         project.AvatarURL,
		WebURL:            project.WebURL,
		SelectedBranch:    orchestrator.SelectedBranch(intent, job, project),
		Branches:          slice.Map(branches.Data, func(b *models.Branch) string { return b.Name }),
		BranchesState:     branches.State,
		BranchesError:     errorMessage(branches.Err),
		SelectDisabled:    job.IsInFlight() || intent.IsPending(),
		JobState:          jobs.State,
		Watching:          input.Watching[project.ID],
		Intent:            intent,
		LastDeployment:    buildLastDeployment(project, jobs),
		User:              buildUser(input.Config, project, job),
	}
	row.StatusIcon, row.StatusTitle = projectStatus(project, job, intent)
	if job != nil {
		row.StatusLink = job.WebURL
	}
	if input.Deployments.Data != nil {
		row.History = slice.Map(input.Deployments.Data[project.ID], func(d *models.Deployment) environmentModels.DeploymentRow {
			return buildDeploymentRow(input.Config, project, d)
		})
		if row.History == nil {
			row.History = []environmentModels.DeploymentRow{}
		}
	}
	return row
}

func projectStatus(project *models.Project, job *models.Job, intent *orchestrator.Intent) (environmentModels.StatusIcon, string) {
	switch {
	case intent.IsPending():
		return environmentModels.StatusIconSyncing, string(orchestrator.IntentPending)
	case job != nil:
		return StatusIcon(job.Status), string(job.Status)
	case project.LastDeployment != nil:
		status := project.LastDeployment.Pipeline.Status
		return StatusIcon(status), string(status)
	default:
		return environmentModels.StatusIconNone, ""
	}
}

// StatusIcon Icon class of a job or pipeline status
func StatusIcon(status models.JobStatus) environmentModels.StatusIcon {
	switch {
	case status.IsInFlight():
		return environmentModels.StatusIconSyncing
	case status == models.JobStatusSuccess:
		return environmentModels.StatusIconSuccess
	case status.IsFailure():
		return environmentModels.StatusIconFailure
	default:
		return environmentModels.StatusIconNone
	}
}

func buildLastDeployment(project *models.Project, jobs store.Snapshot[*models.Job]) environmentModels.LastDeployment {
	job := jobs.Data
	switch {
	case project.LastDeployment == nil:
		return environmentModels.LastDeployment{Kind: environmentModels.LastDeploymentNone}
	case jobs.State == store.NotLoaded:
		return environmentModels.LastDeployment{Kind: environmentModels.LastDeploymentLoading}
	case job.IsInFlight():
		return environmentModels.LastDeployment{Kind: environmentModels.LastDeploymentRunning, Link: job.WebURL}
	case job != nil:
		return environmentModels.LastDeployment{
			Kind: environmentModels.LastDeploymentFinished,
			Link: PipelineLink(project.WebURL, job.PipelineID),
			Time: job.FinishedAt,
		}
	default:
		return environmentModels.LastDeployment{
			Kind: environmentModels.LastDeploymentFinished,
			Link: PipelineLink(project.WebURL, project.LastDeployment.Pipeline.ID),
			Time: project.LastDeployment.UpdatedAt,
		}
	}
}

func buildUser(config models.Config, project *models.Project, job *models.Job) *environmentModels.UserLink {
	switch {
	case job != nil && job.User != nil:
		return userLink(config, job.User)
	case project.LastDeployment != nil && project.LastDeployment.User != nil:
		return userLink(config, project.LastDeployment.User)
	default:
		return nil
	}
}

func buildDeploymentRow(config models.Config, project *models.Project, deployment *models.Deployment) environmentModels.DeploymentRow {
	row := environmentModels.DeploymentRow{
		ID:           deployment.ID,
		Ref:          deployment.Ref,
		BranchLink:   BranchLink(project.WebURL, deployment.Ref),
		PipelineID:   deployment.Pipeline.ID,
		PipelineLink: PipelineLink(project.WebURL, deployment.Pipeline.ID),
		UpdatedAt:    deployment.UpdatedAt,
		StatusIcon:   StatusIcon(deployment.Pipeline.Status),
		Status:       string(deployment.Pipeline.Status),
	}
	if deployment.User != nil {
		row.User = userLink(config, deployment.User)
	}
	return row
}

func userLink(config models.Config, user *models.User) *environmentModels.UserLink {
	return &environmentModels.UserLink{
		Name:      user.Name,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Link:      UserProfileLink(config, user.Username),
	}
}

// UserProfileLink The user link template with {username} substituted, or the user's
// page on the upstream platform when no template is configured
func UserProfileLink(config models.Config, username string) string {
	if config.UserLinkTemplate == "" {
		return fmt.Sprintf("%s/%s", config.GitLabBaseURL, username)
	}
	return strings.Replace(config.UserLinkTemplate, "{username}", username, 1)
}

// PipelineLink Link to a pipeline of a project
func PipelineLink(projectURL string, pipelineID int) string {
	return fmt.Sprintf("%s/pipelines/%d", projectURL, pipelineID)
}

// BranchLink Link to the tree of a branch of a project
func BranchLink(projectURL, ref string) string {
	return fmt.Sprintf("%s/-/tree/%s", projectURL, ref)
}

// FilterEnvironments Environments whose name contains the search, ignoring case
func FilterEnvironments(environments []*models.Environment, search string) []*models.Environment {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return environments
	}
	return slice.FindAll(environments, func(e *models.Environment) bool {
		return strings.Contains(strings.ToLower(e.Name), search)
	})
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
