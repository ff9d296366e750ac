package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/equinor/radix-deploy-dashboard/api/router"
	"github.com/equinor/radix-deploy-dashboard/models"
	"github.com/rs/zerolog/log"
)

// Utils Instance variables
type Utils struct {
	controllers []models.Controller
}

// NewTestUtils Constructor
func NewTestUtils(controllers ...models.Controller) Utils {
	return Utils{controllers: controllers}
}

// ExecuteRequest Helper method to issue a http request
func (tu *Utils) ExecuteRequest(method, endpoint string) <-chan *httptest.ResponseRecorder {
	return tu.ExecuteRequestWithParameters(method, endpoint, nil)
}

// ExecuteRequestWithParameters Helper method to issue a http request with a json payload
func (tu *Utils) ExecuteRequestWithParameters(method, endpoint string, parameters interface{}) <-chan *httptest.ResponseRecorder {
	var reader io.Reader

	if parameters != nil {
		payload, _ := json.Marshal(parameters)
		reader = bytes.NewReader(payload)
	}

	req, _ := http.NewRequest(method, endpoint, reader)
	req.Header.Add("Accept", "application/json")
	if reader != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	response := make(chan *httptest.ResponseRecorder)
	go func() {
		rr := httptest.NewRecorder()
		router.NewAPIHandler(nil, tu.controllers...).ServeHTTP(rr, req)
		response <- rr
		close(response)
	}()

	return response
}

// GetErrorResponse Gets error response
func GetErrorResponse(response *httptest.ResponseRecorder) (*radixhttp.Error, error) {
	errorResponse := &radixhttp.Error{}
	err := GetResponseBody(response, errorResponse)
	if err != nil {
		log.Info().Err(err).Msg("Failed to read error response")
		return nil, err
	}

	return errorResponse, nil
}

// GetResponseBody Gets response payload as type
func GetResponseBody(response *httptest.ResponseRecorder, target interface{}) error {
	body, _ := io.ReadAll(response.Body)
	log.Debug().Msg(string(body))

	return json.Unmarshal(body, target)
}
