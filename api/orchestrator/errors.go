package orchestrator

import "errors"

var (
	// ErrSubmissionInFlight A deploy from the same form has not settled yet
	ErrSubmissionInFlight = errors.New("a deploy request is already in progress")
	// ErrBranchNotFound The branch is not among the loaded branches of the project
	ErrBranchNotFound = errors.New("branch not found")
	// ErrEnvironmentNotFound The environment is not among the loaded environments
	ErrEnvironmentNotFound = errors.New("environment not found")
	// ErrScopeNotFound No open scope has the given id
	ErrScopeNotFound = errors.New("scope not found")
)
