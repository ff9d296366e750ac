package store

import "fmt"

// LoadState Outcome of the most recent fetch of a collection
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

var loadStateNames = map[LoadState]string{
	NotLoaded: "notLoaded",
	Loading:   "loading",
	Loaded:    "loaded",
	Failed:    "failed",
}

func (s LoadState) String() string {
	if name, ok := loadStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

// MarshalText Load-states are serialized by name
func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *LoadState) UnmarshalText(text []byte) error {
	for state, name := range loadStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown load state %q", text)
}

// IsSettled True when the most recent fetch has completed or failed
func (s LoadState) IsSettled() bool {
	return s == Loaded || s == Failed
}

// Collection Entity class held by the store
type Collection string

const (
	Environments Collection = "environments"
	Branches     Collection = "branches"
	Jobs         Collection = "jobs"
	Deployments  Collection = "deployments"
	Config       Collection = "config"
)

// Change Describes one applied transition. Environment and ProjectID are set when the
// fetch that caused it was scoped to an environment or a project.
type Change struct {
	Collection  Collection
	State       LoadState
	Environment string
	ProjectID   int
	Err         error
}

// Listener Receives every applied transition
type Listener func(Change)

// Snapshot A copy of a collection (or one entry of it) together with its load-state
type Snapshot[T any] struct {
	State LoadState
	Err   error
	Data  T
}
