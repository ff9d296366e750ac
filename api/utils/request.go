package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/gorilla/mux"
)

// GetProjectID Reads the projectId path variable
func GetProjectID(r *http.Request) (int, error) {
	value := mux.Vars(r)["projectId"]
	projectID, err := strconv.Atoi(value)
	if err != nil || projectID <= 0 {
		return 0, radixhttp.ValidationError("Project", fmt.Sprintf("invalid project id %q", value))
	}
	return projectID, nil
}

// DecodeBody Decodes the JSON request body into target
func DecodeBody(r *http.Request, kind string, target interface{}) error {
	if r.Body == nil {
		return radixhttp.ValidationError(kind, "request body is missing")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return radixhttp.ValidationError(kind, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
