package deployments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	radixhttp "github.com/equinor/radix-common/net/http"
	deploymentModels "github.com/equinor/radix-deploy-dashboard/api/deployments/models"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/utils"
)

// MinPrefixLength Shortest branch prefix accepted by a deploy by prefix
const MinPrefixLength = 3

// DeploymentHandler Instance variables
type DeploymentHandler struct {
	orchestrator *orchestrator.Orchestrator
}

// Init Constructor
func Init(orchestrator *orchestrator.Orchestrator) DeploymentHandler {
	return DeploymentHandler{
		orchestrator: orchestrator,
	}
}

// DeployBranch Deploys a branch to a project
func (dh DeploymentHandler) DeployBranch(ctx context.Context, envName string, projectID int, request deploymentModels.DeployBranchRequest) (*orchestrator.Intent, error) {
	branch := strings.TrimSpace(request.Branch)
	if branch == "" {
		return nil, radixhttp.ValidationError("Branch", "branch is required")
	}
	intent, err := dh.orchestrator.DeployBranch(ctx, envName, projectID, branch)
	return intent, utils.ApiError(err)
}

// Redeploy Deploys the selected branch of a project again
func (dh DeploymentHandler) Redeploy(ctx context.Context, envName string, projectID int) (*orchestrator.Intent, error) {
	intent, err := dh.orchestrator.Redeploy(ctx, envName, projectID)
	return intent, utils.ApiError(err)
}

// DeployByPrefix Deploys the first branch matching the prefix in every project of an environment
func (dh DeploymentHandler) DeployByPrefix(ctx context.Context, envName string, request deploymentModels.DeployByPrefixRequest) (*deploymentModels.DeployByPrefixResponse, error) {
	prefix := strings.TrimSpace(request.Prefix)
	if utf8.RuneCountInString(prefix) < MinPrefixLength {
		return nil, radixhttp.ValidationError("Prefix", fmt.Sprintf("prefix must be at least %d characters", MinPrefixLength))
	}
	environment, err := dh.orchestrator.Environment(ctx, envName)
	if errors.Is(err, orchestrator.ErrEnvironmentNotFound) {
		return nil, radixhttp.NotFoundError(fmt.Sprintf("environment %s not found", envName))
	}
	if err != nil {
		return nil, utils.ApiError(err)
	}
	if err := dh.orchestrator.DeployByPrefix(ctx, envName, prefix); err != nil {
		return nil, utils.ApiError(err)
	}
	return &deploymentModels.DeployByPrefixResponse{Environment: envName, Prefix: prefix, ProjectIDs: environment.ProjectIDs()}, nil
}
