package configuration

import (
	"net/http"

	"github.com/equinor/radix-deploy-dashboard/models"
)

const rootPath = "/config"

type configurationController struct {
	*models.DefaultController

	handler ConfigurationHandler
}

// NewConfigurationController Constructor
func NewConfigurationController(handler ConfigurationHandler) models.Controller {
	return &configurationController{
		handler: handler,
	}
}

// GetRoutes List the supported routes of this handler
func (c *configurationController) GetRoutes() models.Routes {
	routes := models.Routes{
		models.Route{
			Path:        rootPath,
			Method:      http.MethodGet,
			HandlerFunc: c.GetConfig,
		},
	}

	return routes
}

// GetConfig reveals the dashboard configuration and the current user
func (c *configurationController) GetConfig(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /config config getConfig
	// ---
	// summary: Show the dashboard configuration
	// responses:
	//   "200":
	//     description: "Successful operation"
	//     schema:
	//        "$ref": "#/definitions/Config"
	//   "500":
	//     description: "Internal Server Error"

	config, err := c.handler.GetConfig(r.Context())
	if err != nil {
		c.ErrorResponse(w, r, err)
		return
	}

	c.JSONResponse(w, r, config)
}
