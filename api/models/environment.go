package models

import "fmt"

// Environment A named group of projects sharing a deploy target
// swagger:model Environment
type Environment struct {
	// Name of the environment
	//
	// required: true
	// example: staging
	Name string `json:"name"`

	// Projects bound to the environment
	Projects []*Project `json:"projects"`
}

// ProjectIDs Ids of all projects bound to the environment, in listing order
func (e *Environment) ProjectIDs() []int {
	if e == nil {
		return nil
	}
	ids := make([]int, 0, len(e.Projects))
	for _, project := range e.Projects {
		ids = append(ids, project.ID)
	}
	return ids
}

// Project A source-control repository deployable within an environment
// swagger:model Project
type Project struct {
	ID                int         `json:"id"`
	Name              string      `json:"name"`
	NameWithNamespace string      `json:"nameWithNamespace"`
	AvatarURL         string      `json:"avatarURL"`
	WebURL            string      `json:"webURL"`
	LastDeployment    *Deployment `json:"lastDeployment"`
}

// Branch A branch of a project and the commit it points at
// swagger:model Branch
type Branch struct {
	Name     string `json:"name"`
	CommitID string `json:"commitId"`
}

// ProjectKey Identifies a project within an environment
type ProjectKey struct {
	Environment string
	ProjectID   int
}

func (k ProjectKey) String() string {
	return fmt.Sprintf("%s/%d", k.Environment, k.ProjectID)
}
