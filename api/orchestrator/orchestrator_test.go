package orchestrator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/gateway"
	"github.com/equinor/radix-deploy-dashboard/api/gateway/mock"
	"github.com/equinor/radix-deploy-dashboard/api/jobs"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
	testingclock "k8s.io/utils/clock/testing"
)

const (
	envName = "dev"
	waitFor = 2 * time.Second
)

var anyCtx = gomock.Any()

type orchestratorTestSuite struct {
	suite.Suite
	gateway      *mock.MockClient
	store        *store.Store
	clock        *testingclock.FakeClock
	orchestrator *orchestrator.Orchestrator
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(orchestratorTestSuite))
}

func (s *orchestratorTestSuite) SetupTest() {
	s.gateway = mock.NewMockClient(gomock.NewController(s.T()))
	s.store = store.New()
	s.clock = testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.orchestrator = orchestrator.New(context.Background(), s.gateway, s.store, orchestrator.WithClock(s.clock))
}

func (s *orchestratorTestSuite) TearDownTest() {
	s.orchestrator.Close()
}

func (s *orchestratorTestSuite) loadEnvironment(projects ...*models.Project) *models.Environment {
	environment := &models.Environment{Name: envName, Projects: projects}
	s.store.CompleteEnvironments([]*models.Environment{environment})
	return environment
}

func (s *orchestratorTestSuite) step(d time.Duration) {
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)
	s.clock.Step(d)
}

func (s *orchestratorTestSuite) waitDone(session *jobs.Session) {
	select {
	case <-session.Done():
	case <-time.After(waitFor):
		s.FailNow("poll session did not stop")
	}
}

func projectKey(projectID int) models.ProjectKey {
	return models.ProjectKey{Environment: envName, ProjectID: projectID}
}

func job(projectID int, ref string, status models.JobStatus) *models.Job {
	return &models.Job{ID: projectID * 100, ProjectID: projectID, Ref: ref, Status: status}
}

func (s *orchestratorTestSuite) Test_RefreshEnvironments() {
	environments := []*models.Environment{{Name: "dev"}, {Name: "prod"}}
	s.gateway.EXPECT().ListEnvironments(anyCtx).Return(environments, nil)

	s.NoError(s.orchestrator.RefreshEnvironments(context.Background()))

	snapshot := s.store.Environments()
	s.Equal(store.Loaded, snapshot.State)
	s.Equal(environments, snapshot.Data)
}

func (s *orchestratorTestSuite) Test_RefreshEnvironments_Failure() {
	err := &gateway.Error{Type: gateway.Network, Message: "connection refused"}
	s.gateway.EXPECT().ListEnvironments(anyCtx).Return(nil, err)

	s.ErrorIs(s.orchestrator.RefreshEnvironments(context.Background()), err)

	snapshot := s.store.Environments()
	s.Equal(store.Failed, snapshot.State)
	s.Empty(snapshot.Data)
}

func (s *orchestratorTestSuite) Test_RefreshConfig() {
	config := &models.Config{GitLabBaseURL: "https://gitlab.example.com"}
	s.gateway.EXPECT().GetConfig(anyCtx).Return(config, nil)

	s.NoError(s.orchestrator.RefreshConfig(context.Background()))
	s.Equal(*config, s.store.Config().Data)
}

func (s *orchestratorTestSuite) Test_RefreshJob_NeverStuckLoading() {
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(nil, errors.New("boom"))

	_, err := s.orchestrator.RefreshJob(context.Background(), envName, 1)
	s.NoError(err)
	s.Equal(store.Loaded, s.store.Job(projectKey(1)).State)

	_, err = s.orchestrator.RefreshJob(context.Background(), envName, 1)
	s.Error(err)
	s.Equal(store.Failed, s.store.Job(projectKey(1)).State)
	s.Nil(s.store.Job(projectKey(1)).Data)
}

func (s *orchestratorTestSuite) Test_RefreshDeployments_FailureKeepsNoPartialMap() {
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{10, 20}).Return(nil, errors.New("project 20 failed"))

	s.Error(s.orchestrator.RefreshDeployments(context.Background(), envName, []int{10, 20}))

	snapshot := s.store.Deployments(envName)
	s.Equal(store.Failed, snapshot.State)
	s.Nil(snapshot.Data)
}

func (s *orchestratorTestSuite) Test_RefreshProject() {
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 1).Return([]*models.Branch{{Name: "main", CommitID: "abc"}}, nil)

	s.NoError(s.orchestrator.RefreshProject(context.Background(), envName, 1))
	s.Equal("main", s.store.Job(projectKey(1)).Data.Ref)
	s.Len(s.store.Branches(1).Data, 1)
}

func (s *orchestratorTestSuite) Test_DeployBranch_Accepted_PollsUntilSettled() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "main", CommitID: "abc"}, {Name: "feature", CommitID: "def"}})
	s.store.CompleteJob(envName, 1, job(1, "main", models.JobStatusSuccess))

	var jobFetches, historyFetches atomic.Int32
	s.gateway.EXPECT().DeployBranch(anyCtx, envName, 1, "feature", "def").Return(nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).DoAndReturn(func(context.Context, string, int) (*models.Job, error) {
		jobFetches.Add(1)
		return job(1, "feature", models.JobStatusSuccess), nil
	}).Times(2)
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1}).DoAndReturn(func(context.Context, string, []int) (map[int][]*models.Deployment, error) {
		historyFetches.Add(1)
		return map[int][]*models.Deployment{1: {{ID: 1, Ref: "feature"}}}, nil
	})

	intent, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "feature")

	s.Require().NoError(err)
	s.Equal(orchestrator.IntentAccepted, intent.State)
	s.Equal("feature", intent.Branch)
	s.Equal("main", intent.PreviousBranch)
	s.NotEmpty(intent.ID)
	s.Eventually(func() bool { return jobFetches.Load() == 2 && historyFetches.Load() == 1 }, waitFor, time.Millisecond)

	confirmed, ok := s.orchestrator.Intent(models.ProjectKey{Environment: envName, ProjectID: 1})
	s.Require().True(ok)
	s.Equal(orchestrator.IntentConfirmed, confirmed.State)
	s.Equal(models.JobStatusSuccess, confirmed.Status)
}

func (s *orchestratorTestSuite) Test_DeployBranch_Accepted_FollowsDeployCadence() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "main", CommitID: "abc"}})

	var jobFetches atomic.Int32
	statuses := []models.JobStatus{models.JobStatusPending, models.JobStatusRunning, models.JobStatusSuccess, models.JobStatusSuccess}
	s.gateway.EXPECT().DeployBranch(anyCtx, envName, 1, "main", "abc").Return(nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).DoAndReturn(func(context.Context, string, int) (*models.Job, error) {
		n := jobFetches.Add(1)
		return job(1, "main", statuses[n-1]), nil
	}).Times(4)
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1}).Return(map[int][]*models.Deployment{}, nil)

	_, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "main")
	s.Require().NoError(err)
	session, ok := s.orchestrator.PollSession(models.ProjectKey{Environment: envName, ProjectID: 1})
	s.Require().True(ok)

	s.Eventually(func() bool { return jobFetches.Load() == 1 }, waitFor, time.Millisecond)
	s.step(6500 * time.Millisecond)
	s.Eventually(func() bool { return jobFetches.Load() == 2 }, waitFor, time.Millisecond)
	s.step(5000 * time.Millisecond)
	s.waitDone(session)

	s.EqualValues(4, jobFetches.Load())
	s.Equal(jobs.Idle, s.orchestrator.PollState(models.ProjectKey{Environment: envName, ProjectID: 1}))
}

func (s *orchestratorTestSuite) Test_DeployBranch_Rejected_RevertsSelection() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "feature", CommitID: "def"}})
	s.store.CompleteJob(envName, 1, job(1, "main", models.JobStatusSuccess))
	s.gateway.EXPECT().DeployBranch(anyCtx, envName, 1, "feature", "def").
		Return(&gateway.Error{Type: gateway.Api, Message: "branch is protected", StatusCode: 403})

	intent, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "feature")

	s.Require().Error(err)
	s.Equal("branch is protected", err.Error())
	s.Equal(orchestrator.IntentRejected, intent.State)
	s.Equal("branch is protected", intent.Message)
	s.Equal("main", intent.PreviousBranch)

	latest, _ := s.orchestrator.Intent(models.ProjectKey{Environment: envName, ProjectID: 1})
	s.Equal("main", orchestrator.SelectedBranch(latest, s.store.Job(projectKey(1)).Data, nil))
	s.Equal(jobs.Idle, s.orchestrator.PollState(models.ProjectKey{Environment: envName, ProjectID: 1}))
}

func (s *orchestratorTestSuite) Test_DeployBranch_UnknownBranch() {
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "main", CommitID: "abc"}})

	_, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "feature")

	s.ErrorIs(err, orchestrator.ErrBranchNotFound)
}

func (s *orchestratorTestSuite) Test_DeployBranch_SecondSubmissionWhileInFlight() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "main", CommitID: "abc"}})
	started, release := make(chan struct{}), make(chan struct{})
	s.gateway.EXPECT().DeployBranch(anyCtx, envName, 1, "main", "abc").DoAndReturn(func(context.Context, string, int, string, string) error {
		close(started)
		<-release
		return errors.New("rejected")
	})

	result := make(chan error)
	go func() {
		_, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "main")
		result <- err
	}()
	<-started

	_, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "main")
	s.ErrorIs(err, orchestrator.ErrSubmissionInFlight)

	close(release)
	s.EqualError(<-result, "rejected")
}

func (s *orchestratorTestSuite) Test_Redeploy_UsesLastDeployedBranch() {
	s.loadEnvironment(&models.Project{ID: 1, LastDeployment: &models.Deployment{Ref: "release"}})
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "release", CommitID: "fed"}})
	s.gateway.EXPECT().DeployBranch(anyCtx, envName, 1, "release", "fed").Return(errors.New("rejected"))

	intent, err := s.orchestrator.Redeploy(context.Background(), envName, 1)

	s.Error(err)
	s.Equal("release", intent.Branch)
}

func (s *orchestratorTestSuite) Test_Redeploy_NothingSelected() {
	s.loadEnvironment(&models.Project{ID: 1})

	_, err := s.orchestrator.Redeploy(context.Background(), envName, 1)

	s.ErrorIs(err, orchestrator.ErrBranchNotFound)
}

func (s *orchestratorTestSuite) Test_DeployByPrefix_RefetchesEveryProjectWithoutWaiting() {
	s.loadEnvironment(&models.Project{ID: 1}, &models.Project{ID: 2}, &models.Project{ID: 3})
	started, release := make(chan int, 3), make(chan struct{})
	s.gateway.EXPECT().DeployByPrefix(anyCtx, envName, "release/").Return(nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, gomock.Any()).DoAndReturn(func(_ context.Context, _ string, projectID int) (*models.Job, error) {
		started <- projectID
		<-release
		return nil, nil
	}).Times(3)

	err := s.orchestrator.DeployByPrefix(context.Background(), envName, "release/")
	s.Require().NoError(err)

	var projectIDs []int
	for range 3 {
		select {
		case projectID := <-started:
			projectIDs = append(projectIDs, projectID)
		case <-time.After(waitFor):
			s.FailNow("job re-fetch not started")
		}
	}
	close(release)
	s.ElementsMatch([]int{1, 2, 3}, projectIDs)
}

func (s *orchestratorTestSuite) Test_DeployByPrefix_Rejected() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.gateway.EXPECT().DeployByPrefix(anyCtx, envName, "rel").Return(&gateway.Error{Type: gateway.Api, Message: "no branch matches rel"})

	err := s.orchestrator.DeployByPrefix(context.Background(), envName, "rel")

	s.EqualError(err, "no branch matches rel")
}

func (s *orchestratorTestSuite) Test_OpenEnvironment_LoadsEveryProject() {
	s.loadEnvironment(&models.Project{ID: 1}, &models.Project{ID: 2})
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1, 2}).Return(map[int][]*models.Deployment{1: {}, 2: {}}, nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, gomock.Any()).Return(nil, nil).Times(2)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 1).Return([]*models.Branch{{Name: "main"}}, nil)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 2).Return([]*models.Branch{{Name: "develop"}}, nil)

	scope, err := s.orchestrator.OpenEnvironment(context.Background(), envName)

	s.Require().NoError(err)
	s.Equal([]int{1, 2}, scope.ProjectIDs)
	s.Equal([]string{scope.ID}, s.orchestrator.Scopes(envName))
	s.Equal(store.Loaded, s.store.Deployments(envName).State)
	s.Equal("main", s.store.Branches(1).Data[0].Name)
	s.Equal("develop", s.store.Branches(2).Data[0].Name)
	s.NoError(scope.Close())
	s.Empty(s.orchestrator.Scopes(envName))
}

func (s *orchestratorTestSuite) Test_OpenEnvironment_UnknownEnvironment() {
	s.gateway.EXPECT().ListEnvironments(anyCtx).Return([]*models.Environment{{Name: "prod"}}, nil)

	_, err := s.orchestrator.OpenEnvironment(context.Background(), envName)

	s.ErrorIs(err, orchestrator.ErrEnvironmentNotFound)
}

func (s *orchestratorTestSuite) Test_OpenEnvironment_WatchesInFlightJobUntilSettled() {
	s.loadEnvironment(&models.Project{ID: 1})
	var historyFetches atomic.Int32
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1}).DoAndReturn(func(context.Context, string, []int) (map[int][]*models.Deployment, error) {
		historyFetches.Add(1)
		return map[int][]*models.Deployment{}, nil
	}).Times(2)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 1).Return(nil, nil)
	gomock.InOrder(
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusPending), nil),
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusPending), nil),
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil),
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil),
	)
	key := models.ProjectKey{Environment: envName, ProjectID: 1}

	_, err := s.orchestrator.OpenEnvironment(context.Background(), envName)
	s.Require().NoError(err)
	session, ok := s.orchestrator.PollSession(key)
	s.Require().True(ok)
	s.EqualValues(1, historyFetches.Load())

	s.step(6 * time.Second)
	s.Eventually(func() bool { return s.store.Job(projectKey(1)).State == store.Loaded && s.clock.HasWaiters() }, waitFor, time.Millisecond)
	s.step(6 * time.Second)
	s.waitDone(session)

	s.EqualValues(2, historyFetches.Load())
	s.Equal(jobs.Idle, s.orchestrator.PollState(key))
}

func (s *orchestratorTestSuite) Test_JobSettledWhileEnvironmentsReload_RefreshesHistory() {
	s.loadEnvironment(&models.Project{ID: 1})
	var historyFetches atomic.Int32
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1}).DoAndReturn(func(context.Context, string, []int) (map[int][]*models.Deployment, error) {
		historyFetches.Add(1)
		return map[int][]*models.Deployment{}, nil
	}).Times(2)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 1).Return(nil, nil)
	gomock.InOrder(
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusRunning), nil),
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil),
		s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil),
	)
	listing, release := make(chan struct{}), make(chan struct{})
	s.gateway.EXPECT().ListEnvironments(anyCtx).DoAndReturn(func(context.Context) ([]*models.Environment, error) {
		close(listing)
		<-release
		return []*models.Environment{{Name: envName, Projects: []*models.Project{{ID: 1}}}}, nil
	})

	_, err := s.orchestrator.OpenEnvironment(context.Background(), envName)
	s.Require().NoError(err)
	session, ok := s.orchestrator.PollSession(projectKey(1))
	s.Require().True(ok)
	refreshed := make(chan error, 1)
	go func() { refreshed <- s.orchestrator.RefreshEnvironments(context.Background()) }()
	select {
	case <-listing:
	case <-time.After(waitFor):
		s.FailNow("environments refresh not started")
	}
	s.Require().Nil(s.store.Environment(envName).Data)

	s.step(6 * time.Second)
	s.waitDone(session)
	s.Eventually(func() bool { return historyFetches.Load() == 2 }, waitFor, time.Millisecond)

	close(release)
	s.NoError(<-refreshed)
}

func (s *orchestratorTestSuite) Test_DeploySettledWithoutScope_WaitsForEnvironmentsReload() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.store.CompleteBranches(envName, 1, []*models.Branch{{Name: "main", CommitID: "abc"}})
	s.store.BeginEnvironments()
	historyFetched := make(chan []int, 1)
	s.gateway.EXPECT().DeployBranch(anyCtx, envName, 1, "main", "abc").Return(nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusSuccess), nil).Times(2)
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, gomock.Any()).DoAndReturn(func(_ context.Context, _ string, projectIDs []int) (map[int][]*models.Deployment, error) {
		historyFetched <- projectIDs
		return map[int][]*models.Deployment{}, nil
	})

	_, err := s.orchestrator.DeployBranch(context.Background(), envName, 1, "main")
	s.Require().NoError(err)
	select {
	case <-historyFetched:
		s.FailNow("history refreshed before the environments settled")
	case <-time.After(50 * time.Millisecond):
	}
	s.loadEnvironment(&models.Project{ID: 1}, &models.Project{ID: 2})

	select {
	case projectIDs := <-historyFetched:
		s.Equal([]int{1, 2}, projectIDs)
	case <-time.After(waitFor):
		s.FailNow("history not refreshed")
	}
}

func (s *orchestratorTestSuite) Test_CloseScope_StopsWatching() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1}).Return(map[int][]*models.Deployment{}, nil)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 1).Return(nil, nil)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusRunning), nil).Times(1)
	key := models.ProjectKey{Environment: envName, ProjectID: 1}

	scope, err := s.orchestrator.OpenEnvironment(context.Background(), envName)
	s.Require().NoError(err)
	session, ok := s.orchestrator.PollSession(key)
	s.Require().True(ok)
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)

	s.NoError(s.orchestrator.CloseScope(scope.ID))
	s.waitDone(session)
	s.clock.Step(time.Minute)

	s.Equal(jobs.Idle, s.orchestrator.PollState(key))
}

func (s *orchestratorTestSuite) Test_CloseScope_SharedProjectKeepsWatching() {
	s.loadEnvironment(&models.Project{ID: 1})
	s.gateway.EXPECT().ListDeployments(anyCtx, envName, []int{1}).Return(map[int][]*models.Deployment{}, nil).Times(2)
	s.gateway.EXPECT().ListBranches(anyCtx, envName, 1).Return(nil, nil).Times(2)
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusRunning), nil).Times(2)
	key := models.ProjectKey{Environment: envName, ProjectID: 1}

	first, err := s.orchestrator.OpenEnvironment(context.Background(), envName)
	s.Require().NoError(err)
	second, err := s.orchestrator.OpenEnvironment(context.Background(), envName)
	s.Require().NoError(err)
	session, _ := s.orchestrator.PollSession(key)

	s.NoError(first.Close())
	s.Equal(jobs.Watching, s.orchestrator.PollState(key))

	s.NoError(second.Close())
	s.waitDone(session)
}

func (s *orchestratorTestSuite) Test_CloseScope_Unknown() {
	s.ErrorIs(s.orchestrator.CloseScope("unknown"), orchestrator.ErrScopeNotFound)
}

func (s *orchestratorTestSuite) Test_JobInFlightWithoutScope_IsNotWatched() {
	s.gateway.EXPECT().GetCurrentJob(anyCtx, envName, 1).Return(job(1, "main", models.JobStatusRunning), nil)

	_, err := s.orchestrator.RefreshJob(context.Background(), envName, 1)

	s.NoError(err)
	s.Equal(jobs.Idle, s.orchestrator.PollState(models.ProjectKey{Environment: envName, ProjectID: 1}))
}

func (s *orchestratorTestSuite) Test_RunEnvironmentsRefresh() {
	var refreshes atomic.Int32
	s.gateway.EXPECT().ListEnvironments(anyCtx).DoAndReturn(func(context.Context) ([]*models.Environment, error) {
		refreshes.Add(1)
		return nil, nil
	}).MinTimes(2)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		s.orchestrator.RunEnvironmentsRefresh(ctx, 30*time.Second)
	}()
	s.Eventually(func() bool { return refreshes.Load() == 1 }, waitFor, time.Millisecond)
	s.step(30 * time.Second)
	s.Eventually(func() bool { return refreshes.Load() == 2 }, waitFor, time.Millisecond)

	cancel()
	<-stopped
}
