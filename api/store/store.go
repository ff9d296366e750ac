package store

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/equinor/radix-deploy-dashboard/api/metrics"
	"github.com/equinor/radix-deploy-dashboard/api/models"
)

type collectionState struct {
	state LoadState
	err   error
}

func (c *collectionState) begin() {
	c.state, c.err = Loading, nil
}

func (c *collectionState) complete() {
	c.state, c.err = Loaded, nil
}

func (c *collectionState) fail(err error) {
	c.state, c.err = Failed, err
}

type listenerEntry struct {
	id       int
	listener Listener
}

// Store In-memory state of every entity collection. Each transition is applied atomically
// and listeners are notified after the lock is released.
//
// Overlapping fetches of one collection are not tagged: the last one to settle decides the state.
type Store struct {
	mu sync.RWMutex

	environmentsState collectionState
	environments      map[string]*models.Environment

	branchesState collectionState
	branches      map[int][]*models.Branch

	jobsState collectionState
	jobs      map[models.ProjectKey]*models.Job

	deploymentsState collectionState
	deploymentsEnv   string
	deployments      map[int][]*models.Deployment

	configState collectionState
	config      models.Config

	listenersMu    sync.Mutex
	listeners      []listenerEntry
	nextListenerID int
}

// New Constructor for an empty store
func New() *Store {
	return &Store{
		environments: map[string]*models.Environment{},
		branches:     map[int][]*models.Branch{},
		jobs:         map[models.ProjectKey]*models.Job{},
		config:       models.DefaultConfig(),
	}
}

// AddListener Registers a listener, invoked in registration order. Returns a func removing it.
func (s *Store) AddListener(listener Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners = append(s.listeners, listenerEntry{id: id, listener: listener})
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool { return e.id == id })
	}
}

func (s *Store) notify(change Change) {
	metrics.AddStoreTransition(string(change.Collection), change.State.String())

	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	for _, entry := range listeners {
		entry.listener(change)
	}
}

func (s *Store) apply(change Change, transition func()) {
	s.mu.Lock()
	transition()
	s.mu.Unlock()
	s.notify(change)
}

// BeginEnvironments Environments are loading; the previous list is cleared
func (s *Store) BeginEnvironments() {
	s.apply(Change{Collection: Environments, State: Loading}, func() {
		s.environmentsState.begin()
		s.environments = map[string]*models.Environment{}
	})
}

// CompleteEnvironments Replaces the environments wholesale, keyed by name
func (s *Store) CompleteEnvironments(environments []*models.Environment) {
	items := make(map[string]*models.Environment, len(environments))
	for _, environment := range environments {
		items[environment.Name] = environment
	}
	s.apply(Change{Collection: Environments, State: Loaded}, func() {
		s.environmentsState.complete()
		s.environments = items
	})
}

// FailEnvironments Environments failed to load; the list is cleared
func (s *Store) FailEnvironments(err error) {
	s.apply(Change{Collection: Environments, State: Failed, Err: err}, func() {
		s.environmentsState.fail(err)
		s.environments = map[string]*models.Environment{}
	})
}

// BeginBranches Branches of a project are loading. Clears the cached branches of every project.
func (s *Store) BeginBranches(envName string, projectID int) {
	s.apply(Change{Collection: Branches, State: Loading, Environment: envName, ProjectID: projectID}, func() {
		s.branchesState.begin()
		s.branches = map[int][]*models.Branch{}
	})
}

// CompleteBranches Merges the branches of one project into the cache
func (s *Store) CompleteBranches(envName string, projectID int, branches []*models.Branch) {
	s.apply(Change{Collection: Branches, State: Loaded, Environment: envName, ProjectID: projectID}, func() {
		s.branchesState.complete()
		s.branches[projectID] = slices.Clone(branches)
	})
}

// FailBranches Branches failed to load; the cache of every project is cleared
func (s *Store) FailBranches(envName string, projectID int, err error) {
	s.apply(Change{Collection: Branches, State: Failed, Environment: envName, ProjectID: projectID, Err: err}, func() {
		s.branchesState.fail(err)
		s.branches = map[int][]*models.Branch{}
	})
}

// BeginJob The current job of a project is loading. Cached jobs are kept.
func (s *Store) BeginJob(envName string, projectID int) {
	s.apply(Change{Collection: Jobs, State: Loading, Environment: envName, ProjectID: projectID}, func() {
		s.jobsState.begin()
	})
}

// CompleteJob Merges the current job of one project. A nil job means the project has none.
func (s *Store) CompleteJob(envName string, projectID int, job *models.Job) {
	s.apply(Change{Collection: Jobs, State: Loaded, Environment: envName, ProjectID: projectID}, func() {
		s.jobsState.complete()
		s.jobs[models.ProjectKey{Environment: envName, ProjectID: projectID}] = job
	})
}

// FailJob The current job failed to load; the jobs of every project are cleared
func (s *Store) FailJob(envName string, projectID int, err error) {
	s.apply(Change{Collection: Jobs, State: Failed, Environment: envName, ProjectID: projectID, Err: err}, func() {
		s.jobsState.fail(err)
		s.jobs = map[models.ProjectKey]*models.Job{}
	})
}

// BeginDeployments Deployment histories of an environment are loading; items become nil
func (s *Store) BeginDeployments(envName string) {
	s.apply(Change{Collection: Deployments, State: Loading, Environment: envName}, func() {
		s.deploymentsState.begin()
		s.deploymentsEnv = envName
		s.deployments = nil
	})
}

// CompleteDeployments Replaces the deployment histories wholesale with those of an environment
func (s *Store) CompleteDeployments(envName string, deployments map[int][]*models.Deployment) {
	items := maps.Clone(deployments)
	if items == nil {
		items = map[int][]*models.Deployment{}
	}
	s.apply(Change{Collection: Deployments, State: Loaded, Environment: envName}, func() {
		s.deploymentsState.complete()
		s.deploymentsEnv = envName
		s.deployments = items
	})
}

// FailDeployments Deployment histories failed to load; items become nil
func (s *Store) FailDeployments(envName string, err error) {
	s.apply(Change{Collection: Deployments, State: Failed, Environment: envName, Err: err}, func() {
		s.deploymentsState.fail(err)
		s.deploymentsEnv = envName
		s.deployments = nil
	})
}

// BeginConfig Configuration is loading. The previous configuration is kept.
func (s *Store) BeginConfig() {
	s.apply(Change{Collection: Config, State: Loading}, func() {
		s.configState.begin()
	})
}

// CompleteConfig Replaces the configuration
func (s *Store) CompleteConfig(config models.Config) {
	s.apply(Change{Collection: Config, State: Loaded}, func() {
		s.configState.complete()
		s.config = config
	})
}

// FailConfig Configuration failed to load. The previous configuration is kept.
func (s *Store) FailConfig(err error) {
	s.apply(Change{Collection: Config, State: Failed, Err: err}, func() {
		s.configState.fail(err)
	})
}

// Environments All environments sorted by name
func (s *Store) Environments() Snapshot[[]*models.Environment] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := slices.Collect(maps.Values(s.environments))
	slices.SortFunc(items, func(a, b *models.Environment) int { return strings.Compare(a.Name, b.Name) })
	return Snapshot[[]*models.Environment]{State: s.environmentsState.state, Err: s.environmentsState.err, Data: items}
}

// Environment One environment by name. Data is nil when the environment is unknown.
func (s *Store) Environment(name string) Snapshot[*models.Environment] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[*models.Environment]{State: s.environmentsState.state, Err: s.environmentsState.err, Data: s.environments[name]}
}

// Branches The cached branches of a project
func (s *Store) Branches(projectID int) Snapshot[[]*models.Branch] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[[]*models.Branch]{State: s.branchesState.state, Err: s.branchesState.err, Data: slices.Clone(s.branches[projectID])}
}

// Job The cached current job of a project in an environment, nil when there is none
func (s *Store) Job(key models.ProjectKey) Snapshot[*models.Job] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var job *models.Job
	if cached := s.jobs[key]; cached != nil {
		copied := *cached
		job = &copied
	}
	return Snapshot[*models.Job]{State: s.jobsState.state, Err: s.jobsState.err, Data: job}
}

// Deployments The deployment histories of an environment by project id. Data is nil unless loaded.
// The store holds the histories of one environment at a time; those of any other read as not loaded.
func (s *Store) Deployments(envName string) Snapshot[map[int][]*models.Deployment] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deploymentsEnv != envName {
		return Snapshot[map[int][]*models.Deployment]{State: NotLoaded}
	}
	return Snapshot[map[int][]*models.Deployment]{State: s.deploymentsState.state, Err: s.deploymentsState.err, Data: maps.Clone(s.deployments)}
}

// Config The dashboard configuration
func (s *Store) Config() Snapshot[models.Config] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[models.Config]{State: s.configState.state, Err: s.configState.err, Data: s.config}
}
