package utils

import (
	"errors"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/equinor/radix-deploy-dashboard/api/gateway"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/models"
)

// ApiError Maps orchestrator and upstream errors to API errors
func ApiError(err error) error {
	var gatewayErr *gateway.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, orchestrator.ErrSubmissionInFlight):
		return &models.ConflictError{Message: err.Error()}
	case errors.Is(err, orchestrator.ErrEnvironmentNotFound), errors.Is(err, orchestrator.ErrScopeNotFound):
		return radixhttp.NotFoundError(err.Error())
	case errors.Is(err, orchestrator.ErrBranchNotFound):
		return radixhttp.ValidationError("Branch", err.Error())
	case errors.As(err, &gatewayErr) && gatewayErr.Type == gateway.Api:
		return &radixhttp.Error{Type: radixhttp.User, Message: gatewayErr.Message, Err: err}
	case errors.As(err, &gatewayErr):
		return &radixhttp.Error{Type: radixhttp.Server, Message: gatewayErr.Message, Err: err}
	default:
		return radixhttp.UnexpectedError("Unexpected error", err)
	}
}
