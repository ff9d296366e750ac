package deployments

import (
	"net/http"

	deploymentModels "github.com/equinor/radix-deploy-dashboard/api/deployments/models"
	"github.com/equinor/radix-deploy-dashboard/api/utils"
	"github.com/equinor/radix-deploy-dashboard/models"
	"github.com/gorilla/mux"
)

const rootPath = "/environments/{envName}"

type deploymentController struct {
	*models.DefaultController
	handler DeploymentHandler
}

// NewDeploymentController Constructor
func NewDeploymentController(handler DeploymentHandler) models.Controller {
	return &deploymentController{
		handler: handler,
	}
}

// GetRoutes List the supported routes of this handler
func (c *deploymentController) GetRoutes() models.Routes {
	routes := models.Routes{
		models.Route{
			Path:        rootPath + "/projects/{projectId}/deploy",
			Method:      http.MethodPost,
			HandlerFunc: c.DeployBranch,
		},
		models.Route{
			Path:        rootPath + "/projects/{projectId}/redeploy",
			Method:      http.MethodPost,
			HandlerFunc: c.Redeploy,
		},
		models.Route{
			Path:        rootPath + "/deploy",
			Method:      http.MethodPost,
			HandlerFunc: c.DeployByPrefix,
		},
	}

	return routes
}

// DeployBranch Deploys a branch to a project
func (c *deploymentController) DeployBranch(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /environments/{envName}/projects/{projectId}/deploy deployment deployBranch
	// ---
	// summary: Deploys the head commit of a branch; the current job is polled until it settles
	// parameters:
	// - name: envName
	//   in: path
	//   type: string
	//   required: true
	// - name: projectId
	//   in: path
	//   type: integer
	//   required: true
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/DeployBranchRequest"
	// responses:
	//   "200":
	//     description: "Deploy accepted"
	//     schema:
	//        "$ref": "#/definitions/Intent"
	//   "400":
	//     description: "Invalid request or deploy rejected upstream"
	//   "409":
	//     description: "A deploy of the project is already in progress"
	projectID, err := utils.GetProjectID(r)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}
	var request deploymentModels.DeployBranchRequest
	if err := utils.DecodeBody(r, "DeployBranchRequest", &request); err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	intent, err := c.handler.DeployBranch(r.Context(), mux.Vars(r)["envName"], projectID, request)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, intent)
}

// Redeploy Deploys the selected branch of a project again
func (c *deploymentController) Redeploy(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /environments/{envName}/projects/{projectId}/redeploy deployment redeploy
	// ---
	// summary: Deploys the currently selected branch of a project again
	// responses:
	//   "200":
	//     description: "Deploy accepted"
	//     schema:
	//        "$ref": "#/definitions/Intent"
	//   "409":
	//     description: "A deploy of the project is already in progress"
	projectID, err := utils.GetProjectID(r)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	intent, err := c.handler.Redeploy(r.Context(), mux.Vars(r)["envName"], projectID)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, intent)
}

// DeployByPrefix Deploys the first branch matching a prefix in every project of an environment
func (c *deploymentController) DeployByPrefix(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /environments/{envName}/deploy deployment deployByPrefix
	// ---
	// summary: Deploys the first branch matching the prefix in every project of the environment
	// parameters:
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/DeployByPrefixRequest"
	// responses:
	//   "200":
	//     description: "Deploy accepted"
	//     schema:
	//        "$ref": "#/definitions/DeployByPrefixResponse"
	//   "400":
	//     description: "Invalid prefix or deploy rejected upstream"
	//   "409":
	//     description: "A deploy by prefix of the environment is already in progress"
	var request deploymentModels.DeployByPrefixRequest
	if err := utils.DecodeBody(r, "DeployByPrefixRequest", &request); err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	response, err := c.handler.DeployByPrefix(r.Context(), mux.Vars(r)["envName"], request)
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, response)
}
