package orchestrator

import (
	"context"
	"fmt"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/equinor/radix-deploy-dashboard/api/gateway"
	"github.com/equinor/radix-deploy-dashboard/api/metrics"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/rs/zerolog/log"
)

const (
	deployKindBranch = "branch"
	deployKindPrefix = "prefix"
)

// DeployBranch Deploys the loaded head commit of a branch to a project. The returned intent is
// rejected, with the upstream message, when the deploy fails; otherwise it is accepted and the
// current job of the project is polled until it settles.
func (o *Orchestrator) DeployBranch(ctx context.Context, envName string, projectID int, branchName string) (*Intent, error) {
	key := models.ProjectKey{Environment: envName, ProjectID: projectID}
	release, err := o.acquire(deployKindBranch + ":" + key.String())
	if err != nil {
		return nil, err
	}
	defer release()

	branch, ok := slice.FindFirst(o.store.Branches(projectID).Data, func(b *models.Branch) bool { return b.Name == branchName })
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, branchName)
	}

	pending := o.intents.begin(key, branchName, o.selectedBranch(key), o.clock.Now())
	logger := log.Ctx(ctx).With().Str("environment", envName).Int("projectId", projectID).Str("branch", branchName).Str("intent", pending.ID).Logger()

	err = o.gateway.DeployBranch(ctx, envName, projectID, branchName, branch.CommitID)
	intent := o.intents.settle(key, pending.ID, err, messageOf(err))
	if err != nil {
		metrics.AddDeployTriggered(envName, deployKindBranch, "rejected")
		logger.Warn().Err(err).Msg("Deploy rejected")
		return &intent, err
	}

	metrics.AddDeployTriggered(envName, deployKindBranch, "accepted")
	logger.Info().Str("commit", branch.CommitID).Msg("Deploy accepted")
	o.poller.Track(o.sessionContext(key), key)
	return &intent, nil
}

// Redeploy Deploys the currently selected branch of a project again
func (o *Orchestrator) Redeploy(ctx context.Context, envName string, projectID int) (*Intent, error) {
	branch := o.selectedBranch(models.ProjectKey{Environment: envName, ProjectID: projectID})
	if branch == "" {
		return nil, fmt.Errorf("%w: no branch selected", ErrBranchNotFound)
	}
	return o.DeployBranch(ctx, envName, projectID, branch)
}

// DeployByPrefix Deploys the first branch matching the prefix in every project of the environment.
// On acceptance the current job of each project is re-fetched once in the background; the call
// does not wait for them.
func (o *Orchestrator) DeployByPrefix(ctx context.Context, envName, prefix string) error {
	release, err := o.acquire(deployKindPrefix + ":" + envName)
	if err != nil {
		return err
	}
	defer release()

	logger := log.Ctx(ctx).With().Str("environment", envName).Str("prefix", prefix).Logger()
	if err := o.gateway.DeployByPrefix(ctx, envName, prefix); err != nil {
		metrics.AddDeployTriggered(envName, deployKindPrefix, "rejected")
		logger.Warn().Err(err).Msg("Deploy by prefix rejected")
		return err
	}
	metrics.AddDeployTriggered(envName, deployKindPrefix, "accepted")
	logger.Info().Msg("Deploy by prefix accepted")

	environment, err := o.awaitEnvironment(ctx, envName)
	if err != nil {
		return err
	}
	refreshCtx := log.Ctx(ctx).WithContext(o.ctx)
	for _, projectID := range environment.Data.ProjectIDs() {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if _, err := o.RefreshJob(refreshCtx, envName, projectID); err != nil {
				log.Ctx(refreshCtx).Warn().Err(err).Int("projectId", projectID).Msg("Failed to re-fetch job after deploy by prefix")
			}
		}()
	}
	return nil
}

// selectedBranch The branch currently shown as selected for a project
func (o *Orchestrator) selectedBranch(key models.ProjectKey) string {
	intent, _ := o.intents.get(key)
	var project *models.Project
	if environment := o.store.Environment(key.Environment).Data; environment != nil {
		project, _ = slice.FindFirst(environment.Projects, func(p *models.Project) bool { return p.ID == key.ProjectID })
	}
	return SelectedBranch(intent, o.store.Job(key).Data, project)
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return gateway.Message(err)
}
