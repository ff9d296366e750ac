package models

import (
	"encoding/json"
	"errors"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/rs/zerolog/log"
)

// Controller Pattern of a rest controller
type Controller interface {
	GetRoutes() Routes
}

// ConflictError The request conflicts with one that has not completed yet
type ConflictError struct {
	Message string `json:"message"`
}

func (e *ConflictError) Error() string {
	return e.Message
}

// DefaultController Default implementation
type DefaultController struct {
}

// ErrorResponse Marshals error for user requester
func (c *DefaultController) ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		c.StatusResponse(w, r, http.StatusConflict, conflict)
		return
	}
	if err = radixhttp.ErrorResponse(w, r, err); err != nil {
		log.Ctx(r.Context()).Err(err).Msg("failed to write response")
	}
}

// JSONResponse Marshals response with header
func (c *DefaultController) JSONResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	if err := radixhttp.JSONResponse(w, r, result); err != nil {
		log.Ctx(r.Context()).Err(err).Msg("failed to write response")
	}
}

// StatusResponse Marshals response with the given status code
func (c *DefaultController) StatusResponse(w http.ResponseWriter, r *http.Request, statusCode int, result interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Ctx(r.Context()).Err(err).Msg("failed to write response")
	}
}

// NoContentResponse Writes an empty 204 response
func (c *DefaultController) NoContentResponse(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
