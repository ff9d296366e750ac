package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EnvironmentScope Lifetime of an environment view. Watch sessions of its projects stop when it is closed.
type EnvironmentScope struct {
	ID          string `json:"id"`
	Environment string `json:"environment"`
	ProjectIDs  []int  `json:"projectIds"`

	orchestrator *Orchestrator
}

// Close Cancels the poll sessions bound to the scope
func (s *EnvironmentScope) Close() error {
	return s.orchestrator.CloseScope(s.ID)
}

// projectScope Reference counted lifetime of a project shared by every open scope showing it
type projectScope struct {
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
	// projects of the environment as of the most recently opened scope
	projectIDs []int
}

// OpenEnvironment Opens a scope for an environment, then loads the deployment history of its
// projects and the current job and branches of each project. Load failures are recorded in the
// store and do not fail the scope.
func (o *Orchestrator) OpenEnvironment(ctx context.Context, envName string) (*EnvironmentScope, error) {
	environment, err := o.Environment(ctx, envName)
	if err != nil {
		return nil, err
	}

	scope := &EnvironmentScope{
		ID:           uuid.New().String(),
		Environment:  envName,
		ProjectIDs:   environment.ProjectIDs(),
		orchestrator: o,
	}
	o.register(scope)

	logger := log.Ctx(ctx).With().Str("scope", scope.ID).Str("environment", envName).Logger()
	logger.Debug().Ints("projectIds", scope.ProjectIDs).Msg("Scope opened")
	if err := o.RefreshDeployments(ctx, envName, scope.ProjectIDs); err != nil {
		logger.Warn().Err(err).Msg("Failed to load deployment history")
	}
	o.loadProjects(logger.WithContext(ctx), envName, scope.ProjectIDs)
	return scope, nil
}

// CloseScope Closes an open scope. Projects no longer shown by any scope stop being watched.
func (o *Orchestrator) CloseScope(id string) error {
	o.scopesMu.Lock()
	defer o.scopesMu.Unlock()
	scope, ok := o.scopes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScopeNotFound, id)
	}
	delete(o.scopes, id)
	for _, projectID := range scope.ProjectIDs {
		key := models.ProjectKey{Environment: scope.Environment, ProjectID: projectID}
		project := o.projectScopes[key]
		if project == nil {
			continue
		}
		if project.refs--; project.refs == 0 {
			project.cancel()
			delete(o.projectScopes, key)
		}
	}
	return nil
}

// Scopes Ids of the open scopes of an environment
func (o *Orchestrator) Scopes(envName string) []string {
	o.scopesMu.Lock()
	defer o.scopesMu.Unlock()
	var ids []string
	for id, scope := range o.scopes {
		if scope.Environment == envName {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (o *Orchestrator) register(scope *EnvironmentScope) {
	o.scopesMu.Lock()
	defer o.scopesMu.Unlock()
	o.scopes[scope.ID] = scope
	for _, projectID := range scope.ProjectIDs {
		key := models.ProjectKey{Environment: scope.Environment, ProjectID: projectID}
		project, ok := o.projectScopes[key]
		if !ok {
			ctx, cancel := context.WithCancel(o.ctx)
			project = &projectScope{ctx: ctx, cancel: cancel}
			o.projectScopes[key] = project
		}
		project.refs++
		project.projectIDs = scope.ProjectIDs
	}
}

// scopeContext The context of the project scope, when an open scope shows the project
func (o *Orchestrator) scopeContext(key models.ProjectKey) (context.Context, bool) {
	o.scopesMu.Lock()
	defer o.scopesMu.Unlock()
	if project, ok := o.projectScopes[key]; ok {
		return project.ctx, true
	}
	return nil, false
}

// scopeProjectIDs The projects of the environment shown by the open scopes of the project
func (o *Orchestrator) scopeProjectIDs(key models.ProjectKey) ([]int, bool) {
	o.scopesMu.Lock()
	defer o.scopesMu.Unlock()
	if project, ok := o.projectScopes[key]; ok {
		return slices.Clone(project.projectIDs), true
	}
	return nil, false
}

// sessionContext The context a deploy session is bound to: its project scope, else the orchestrator
func (o *Orchestrator) sessionContext(key models.ProjectKey) context.Context {
	if ctx, ok := o.scopeContext(key); ok {
		return ctx
	}
	return o.ctx
}
