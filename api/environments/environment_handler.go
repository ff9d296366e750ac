package environments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/equinor/radix-common/utils/slice"
	environmentModels "github.com/equinor/radix-deploy-dashboard/api/environments/models"
	"github.com/equinor/radix-deploy-dashboard/api/jobs"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/equinor/radix-deploy-dashboard/api/utils"
	"github.com/rs/zerolog/log"
)

// EnvironmentHandler Instance variables
type EnvironmentHandler struct {
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
	changes      *utils.Broker[store.Change]
}

// Init Constructor
func Init(entityStore *store.Store, orchestrator *orchestrator.Orchestrator) EnvironmentHandler {
	changes := utils.NewBroker[store.Change]()
	entityStore.AddListener(changes.Publish)
	return EnvironmentHandler{
		store:        entityStore,
		orchestrator: orchestrator,
		changes:      changes,
	}
}

// GetEnvironments Lists the environments whose name contains search. Loads them on first use.
func (eh EnvironmentHandler) GetEnvironments(ctx context.Context, search string) *environmentModels.EnvironmentList {
	if eh.store.Environments().State == store.NotLoaded {
		if err := eh.orchestrator.RefreshEnvironments(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to load environments")
		}
	}
	return eh.environmentList(search)
}

// RefreshEnvironments Reloads the environments and lists those whose name contains search
func (eh EnvironmentHandler) RefreshEnvironments(ctx context.Context, search string) *environmentModels.EnvironmentList {
	if err := eh.orchestrator.RefreshEnvironments(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to refresh environments")
	}
	return eh.environmentList(search)
}

// GetEnvironment The view of an environment
func (eh EnvironmentHandler) GetEnvironment(ctx context.Context, envName string) (*environmentModels.Environment, error) {
	environment, err := eh.getEnvironment(ctx, envName)
	if err != nil {
		return nil, err
	}
	return eh.buildView(environment), nil
}

// OpenScope Opens a scope for the environment and returns its id with the loaded view
func (eh EnvironmentHandler) OpenScope(ctx context.Context, envName string) (*environmentModels.Scope, error) {
	scope, err := eh.orchestrator.OpenEnvironment(ctx, envName)
	if err != nil {
		return nil, utils.ApiError(err)
	}
	environment, err := eh.getEnvironment(ctx, envName)
	if err != nil {
		return nil, err
	}
	return &environmentModels.Scope{ID: scope.ID, Environment: eh.buildView(environment)}, nil
}

// CloseScope Closes an open scope
func (eh EnvironmentHandler) CloseScope(_ context.Context, scopeID string) error {
	return utils.ApiError(eh.orchestrator.CloseScope(scopeID))
}

// RefreshDeployments Reloads the deployment history of every project of the environment
func (eh EnvironmentHandler) RefreshDeployments(ctx context.Context, envName string) (*environmentModels.Environment, error) {
	environment, err := eh.getEnvironment(ctx, envName)
	if err != nil {
		return nil, err
	}
	if err := eh.orchestrator.RefreshDeployments(ctx, envName, environment.ProjectIDs()); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("environment", envName).Msg("Failed to refresh deployment history")
	}
	return eh.buildView(environment), nil
}

// RefreshProject Reloads the current job and the branches of a project
func (eh EnvironmentHandler) RefreshProject(ctx context.Context, envName string, projectID int) (*environmentModels.Environment, error) {
	environment, err := eh.getEnvironment(ctx, envName)
	if err != nil {
		return nil, err
	}
	if !slice.Any(environment.Projects, func(p *models.Project) bool { return p.ID == projectID }) {
		return nil, radixhttp.NotFoundError(fmt.Sprintf("project %d not found in environment %s", projectID, envName))
	}
	if err := eh.orchestrator.RefreshProject(ctx, envName, projectID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("environment", envName).Int("projectId", projectID).Msg("Failed to refresh project")
	}
	return eh.buildView(environment), nil
}

// SubscribeChanges Streams the store changes relevant to the view of an environment.
// The returned function ends the subscription.
func (eh EnvironmentHandler) SubscribeChanges(ctx context.Context, envName string) (<-chan environmentModels.Change, func(), error) {
	if _, err := eh.getEnvironment(ctx, envName); err != nil {
		return nil, nil, err
	}
	changes, unsubscribe := eh.changes.Subscribe(func(change store.Change) bool {
		return change.Environment == "" || change.Environment == envName
	})

	out := make(chan environmentModels.Change)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for change := range changes {
			select {
			case out <- toChangeModel(change):
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}, nil
}

func toChangeModel(change store.Change) environmentModels.Change {
	return environmentModels.Change{
		Collection:  string(change.Collection),
		State:       change.State,
		Environment: change.Environment,
		ProjectID:   change.ProjectID,
		Error:       errorMessage(change.Err),
	}
}

func (eh EnvironmentHandler) getEnvironment(ctx context.Context, envName string) (*models.Environment, error) {
	environment, err := eh.orchestrator.Environment(ctx, envName)
	if errors.Is(err, orchestrator.ErrEnvironmentNotFound) {
		return nil, environmentNotFoundError(envName)
	}
	if err != nil {
		return nil, utils.ApiError(err)
	}
	return environment, nil
}

func (eh EnvironmentHandler) environmentList(search string) *environmentModels.EnvironmentList {
	snapshot := eh.store.Environments()
	return &environmentModels.EnvironmentList{
		State: snapshot.State,
		Error: errorMessage(snapshot.Err),
		Environments: slice.Map(FilterEnvironments(snapshot.Data, search), func(e *models.Environment) environmentModels.EnvironmentSummary {
			return environmentModels.EnvironmentSummary{Name: e.Name, ProjectCount: len(e.Projects)}
		}),
	}
}

func (eh EnvironmentHandler) buildView(environment *models.Environment) *environmentModels.Environment {
	input := ViewInput{
		Environment: environment,
		Config:      eh.store.Config().Data,
		Branches:    map[int]store.Snapshot[[]*models.Branch]{},
		Jobs:        map[int]store.Snapshot[*models.Job]{},
		Deployments: eh.store.Deployments(environment.Name),
		Intents:     map[int]*orchestrator.Intent{},
		Watching:    map[int]bool{},
	}
	for _, projectID := range environment.ProjectIDs() {
		key := models.ProjectKey{Environment: environment.Name, ProjectID: projectID}
		input.Branches[projectID] = eh.store.Branches(projectID)
		input.Jobs[projectID] = eh.store.Job(key)
		if intent, ok := eh.orchestrator.Intent(key); ok {
			input.Intents[projectID] = intent
		}
		input.Watching[projectID] = eh.orchestrator.PollState(key) == jobs.Watching
	}
	return BuildEnvironmentView(input)
}

func environmentNotFoundError(envName string) error {
	return radixhttp.NotFoundError(fmt.Sprintf("environment %s not found", envName))
}
