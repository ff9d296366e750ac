package environments

import (
	"net/http"

	"github.com/equinor/radix-deploy-dashboard/api/utils"
	"github.com/equinor/radix-deploy-dashboard/models"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const rootPath = "/environments"

type environmentController struct {
	*models.DefaultController
	handler EnvironmentHandler
}

// NewEnvironmentController Constructor
func NewEnvironmentController(handler EnvironmentHandler) models.Controller {
	return &environmentController{
		handler: handler,
	}
}

// GetRoutes List the supported routes of this handler
func (c *environmentController) GetRoutes() models.Routes {
	routes := models.Routes{
		models.Route{
			Path:        rootPath,
			Method:      http.MethodGet,
			HandlerFunc: c.GetEnvironments,
		},
		models.Route{
			Path:        rootPath + "/refresh",
			Method:      http.MethodPost,
			HandlerFunc: c.RefreshEnvironments,
		},
		models.Route{
			Path:        rootPath + "/{envName}",
			Method:      http.MethodGet,
			HandlerFunc: c.GetEnvironment,
		},
		models.Route{
			Path:        rootPath + "/{envName}/changes",
			Method:      http.MethodGet,
			HandlerFunc: c.StreamChanges,
		},
		models.Route{
			Path:        rootPath + "/{envName}/scopes",
			Method:      http.MethodPost,
			HandlerFunc: c.OpenScope,
		},
		models.Route{
			Path:        "/scopes/{scopeId}",
			Method:      http.MethodDelete,
			HandlerFunc: c.CloseScope,
		},
		models.Route{
			Path:        rootPath + "/{envName}/deployments/refresh",
			Method:      http.MethodPost,
			HandlerFunc: c.RefreshDeployments,
		},
		models.Route{
			Path:        rootPath + "/{envName}/projects/{projectId}/refresh",
			Method:      http.MethodPost,
			HandlerFunc: c.RefreshProject,
		},
	}

	return routes
}

// GetEnvironments Lists the environments
func (c *environmentController) GetEnvironments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /environments environment getEnvironments
	// ---
	// summary: Lists the environments, loading them on first use
	// parameters:
	// - name: search
	//   in: query
	//   description: case-insensitive part of the environment name
	//   type: string
	//   required: false
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        "$ref": "#/definitions/EnvironmentList"
	c.JSONResponse(w, r, c.handler.GetEnvironments(r.Context(), r.URL.Query().Get("search")))
}

// RefreshEnvironments Reloads the environments
func (c *environmentController) RefreshEnvironments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /environments/refresh environment refreshEnvironments
	// ---
	// summary: Reloads the environments from upstream
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        "$ref": "#/definitions/EnvironmentList"
	c.JSONResponse(w, r, c.handler.RefreshEnvironments(r.Context(), r.URL.Query().Get("search")))
}

// GetEnvironment Gets the view of an environment
func (c *environmentController) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /environments/{envName} environment getEnvironment
	// ---
	// summary: Gets the view of an environment and its projects
	// parameters:
	// - name: envName
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        "$ref": "#/definitions/Environment"
	//   "404":
	//     description: "Not found"
	view, err := c.handler.GetEnvironment(r.Context(), mux.Vars(r)["envName"])
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, view)
}

// StreamChanges Streams the changes of an environment as server-sent events
func (c *environmentController) StreamChanges(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /environments/{envName}/changes environment streamChanges
	// ---
	// summary: Streams a "change" event each time data shown in the environment view changes
	// produces:
	// - text/event-stream
	// parameters:
	// - name: envName
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Event stream of Change"
	//   "404":
	//     description: "Not found"
	changes, unsubscribe, err := c.handler.SubscribeChanges(r.Context(), mux.Vars(r)["envName"])
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}
	defer unsubscribe()

	if err := utils.ServeSSE(w, r, "change", changes); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("Change stream ended")
	}
}

// OpenScope Opens a scope for an environment
func (c *environmentController) OpenScope(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /environments/{envName}/scopes environment openScope
	// ---
	// summary: Opens a scope loading the environment; jobs in flight are polled until the scope is closed
	// parameters:
	// - name: envName
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "201":
	//     description: "Scope opened"
	//     schema:
	//        "$ref": "#/definitions/Scope"
	//   "404":
	//     description: "Not found"
	scope, err := c.handler.OpenScope(r.Context(), mux.Vars(r)["envName"])
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.StatusResponse(w, r, http.StatusCreated, scope)
}

// CloseScope Closes a scope
func (c *environmentController) CloseScope(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /scopes/{scopeId} environment closeScope
	// ---
	// summary: Closes a scope, stopping the polling bound to it
	// parameters:
	// - name: scopeId
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "204":
	//     description: "Scope closed"
	//   "404":
	//     description: "Not found"
	if err := c.handler.CloseScope(r.Context(), mux.Vars(r)["scopeId"]); err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.NoContentResponse(w, r)
}

// RefreshDeployments Reloads the deployment history of an environment
func (c *environmentController) RefreshDeployments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /environments/{envName}/deployments/refresh environment refreshDeployments
	// ---
	// summary: Reloads the deployment history of every project of the environment
	// parameters:
	// - name: envName
	//   in: path
	//   type: string
	//   required: true
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        "$ref": "#/definitions/Environment"
	//   "404":
	//     description: "Not found"
	view, err := c.handler.RefreshDeployments(r.Context(), mux.Vars(r)["envName"])
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, view)
}

// RefreshProject Reloads the current job and branches of a project
func (c *environmentController) RefreshProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := utils.GetProjectID(r)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}
	view, err := c.handler.RefreshProject(r.Context(), mux.Vars(r)["envName"], projectID)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, view)
}
