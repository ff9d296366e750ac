package models

// DeployBranchRequest Deploys the head commit of a branch to a project
// swagger:model DeployBranchRequest
type DeployBranchRequest struct {
	// Branch to deploy
	//
	// required: true
	// example: main
	Branch string `json:"branch"`
}

// DeployByPrefixRequest Deploys the first branch matching a prefix in every project of an environment
// swagger:model DeployByPrefixRequest
type DeployByPrefixRequest struct {
	// Prefix of the branch name, at least three characters
	//
	// required: true
	// example: release/
	Prefix string `json:"prefix"`
}

// DeployByPrefixResponse Accepted deploy by prefix
// swagger:model DeployByPrefixResponse
type DeployByPrefixResponse struct {
	Environment string `json:"environment"`
	Prefix      string `json:"prefix"`
	ProjectIDs  []int  `json:"projectIds"`
}
