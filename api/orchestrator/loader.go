package orchestrator

import (
	"context"
	"fmt"

	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const projectLoadConcurrency = 4

// RefreshEnvironments Loads the environment list into the store
func (o *Orchestrator) RefreshEnvironments(ctx context.Context) error {
	o.store.BeginEnvironments()
	environments, err := o.gateway.ListEnvironments(ctx)
	if err != nil {
		o.store.FailEnvironments(err)
		return err
	}
	o.store.CompleteEnvironments(environments)
	return nil
}

// Environment An environment by name. An in-flight environments load is awaited; the environments
// are loaded when they never were or the last load failed.
func (o *Orchestrator) Environment(ctx context.Context, envName string) (*models.Environment, error) {
	snapshot, err := o.awaitEnvironment(ctx, envName)
	if err != nil {
		return nil, err
	}
	if snapshot.Data == nil && snapshot.State != store.Loaded {
		if err := o.RefreshEnvironments(ctx); err != nil {
			return nil, err
		}
		snapshot = o.store.Environment(envName)
	}
	if snapshot.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, envName)
	}
	return snapshot.Data, nil
}

// awaitEnvironment The snapshot of an environment once no environments load is in flight
func (o *Orchestrator) awaitEnvironment(ctx context.Context, envName string) (store.Snapshot[*models.Environment], error) {
	settled := make(chan struct{}, 1)
	removeListener := o.store.AddListener(func(change store.Change) {
		if change.Collection != store.Environments || !change.State.IsSettled() {
			return
		}
		select {
		case settled <- struct{}{}:
		default:
		}
	})
	defer removeListener()

	for {
		snapshot := o.store.Environment(envName)
		if snapshot.State != store.Loading {
			return snapshot, nil
		}
		select {
		case <-settled:
		case <-ctx.Done():
			return snapshot, ctx.Err()
		}
	}
}

// RefreshConfig Loads the dashboard configuration into the store
func (o *Orchestrator) RefreshConfig(ctx context.Context) error {
	o.store.BeginConfig()
	config, err := o.gateway.GetConfig(ctx)
	if err != nil {
		o.store.FailConfig(err)
		return err
	}
	o.store.CompleteConfig(*config)
	return nil
}

// RefreshBranches Loads the branches of a project into the store
func (o *Orchestrator) RefreshBranches(ctx context.Context, envName string, projectID int) error {
	o.store.BeginBranches(envName, projectID)
	return o.loadBranches(ctx, envName, projectID)
}

func (o *Orchestrator) loadBranches(ctx context.Context, envName string, projectID int) error {
	branches, err := o.gateway.ListBranches(ctx, envName, projectID)
	if err != nil {
		o.store.FailBranches(envName, projectID, err)
		return err
	}
	o.store.CompleteBranches(envName, projectID, branches)
	return nil
}

// RefreshJob Loads the current job of a project into the store and returns it
func (o *Orchestrator) RefreshJob(ctx context.Context, envName string, projectID int) (*models.Job, error) {
	o.store.BeginJob(envName, projectID)
	return o.loadJob(ctx, envName, projectID)
}

func (o *Orchestrator) loadJob(ctx context.Context, envName string, projectID int) (*models.Job, error) {
	job, err := o.gateway.GetCurrentJob(ctx, envName, projectID)
	if err != nil {
		o.store.FailJob(envName, projectID, err)
		return nil, err
	}
	o.store.CompleteJob(envName, projectID, job)
	return job, nil
}

// RefreshDeployments Loads the deployment history of the projects into the store
func (o *Orchestrator) RefreshDeployments(ctx context.Context, envName string, projectIDs []int) error {
	o.store.BeginDeployments(envName)
	deployments, err := o.gateway.ListDeployments(ctx, envName, projectIDs)
	if err != nil {
		o.store.FailDeployments(envName, err)
		return err
	}
	o.store.CompleteDeployments(envName, deployments)
	return nil
}

// RefreshProject Loads the current job and the branches of one project
func (o *Orchestrator) RefreshProject(ctx context.Context, envName string, projectID int) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := o.RefreshJob(ctx, envName, projectID)
		return err
	})
	g.Go(func() error {
		return o.RefreshBranches(ctx, envName, projectID)
	})
	return g.Wait()
}

// loadProjects Loads the job and branches of every project. All loads begin before any
// fetch is issued, so the branches of one project are not cleared by the next project beginning.
func (o *Orchestrator) loadProjects(ctx context.Context, envName string, projectIDs []int) {
	for _, projectID := range projectIDs {
		o.store.BeginJob(envName, projectID)
		o.store.BeginBranches(envName, projectID)
	}

	logger := log.Ctx(ctx)
	var g errgroup.Group
	g.SetLimit(projectLoadConcurrency)
	for _, projectID := range projectIDs {
		g.Go(func() error {
			if _, err := o.loadJob(ctx, envName, projectID); err != nil {
				logger.Warn().Err(err).Int("projectId", projectID).Msg("Failed to load current job")
			}
			return nil
		})
		g.Go(func() error {
			if err := o.loadBranches(ctx, envName, projectID); err != nil {
				logger.Warn().Err(err).Int("projectId", projectID).Msg("Failed to load branches")
			}
			return nil
		})
	}
	_ = g.Wait()
}
