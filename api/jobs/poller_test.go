package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/jobs"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/stretchr/testify/suite"
	testingclock "k8s.io/utils/clock/testing"
)

const waitFor = 2 * time.Second

var projectKey = models.ProjectKey{Environment: "dev", ProjectID: 10}

type fetchResult struct {
	status models.JobStatus
	err    error
}

// scriptedFetcher Returns the scripted results in order, repeating the last one
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *scriptedFetcher) fetch(_ context.Context, key models.ProjectKey) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := f.results[min(f.calls, len(f.results)-1)]
	f.calls++
	if result.err != nil {
		return nil, result.err
	}
	if result.status == "" {
		return nil, nil
	}
	return &models.Job{ProjectID: key.ProjectID, Status: result.status}, nil
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type settleRecorder struct {
	mu   sync.Mutex
	jobs []*models.Job
}

func (r *settleRecorder) settle(_ context.Context, _ models.ProjectKey, job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *settleRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

type pollerTestSuite struct {
	suite.Suite
	clock   *testingclock.FakeClock
	fetcher *scriptedFetcher
	settled *settleRecorder
	poller  *jobs.Poller
}

func TestPollerTestSuite(t *testing.T) {
	suite.Run(t, new(pollerTestSuite))
}

func (s *pollerTestSuite) setup(results ...fetchResult) {
	s.clock = testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.fetcher = &scriptedFetcher{results: results}
	s.settled = &settleRecorder{}
	s.poller = jobs.NewPoller(s.fetcher.fetch, s.settled.settle, jobs.WithClock(s.clock))
}

// step Advances the clock once the session is waiting on its timer
func (s *pollerTestSuite) step(d time.Duration) {
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)
	s.clock.Step(d)
}

func (s *pollerTestSuite) waitFetches(n int) {
	s.Require().Eventually(func() bool { return s.fetcher.count() == n }, waitFor, time.Millisecond)
}

func (s *pollerTestSuite) waitDone(session *jobs.Session) {
	select {
	case <-session.Done():
	case <-time.After(waitFor):
		s.FailNow("session did not stop")
	}
}

func (s *pollerTestSuite) Test_Watch_ConvergesToIdle() {
	s.setup(fetchResult{status: models.JobStatusPending}, fetchResult{status: models.JobStatusPending}, fetchResult{status: models.JobStatusSuccess})

	session := s.poller.Watch(context.Background(), projectKey)
	s.Equal(jobs.Watching, s.poller.State(projectKey))

	s.step(6 * time.Second)
	s.waitFetches(1)
	s.step(6 * time.Second)
	s.waitFetches(2)
	s.step(6 * time.Second)
	s.waitDone(session)

	s.Equal(3, s.fetcher.count())
	s.Equal(1, s.settled.count())
	s.Equal(models.JobStatusSuccess, s.settled.jobs[0].Status)
	s.Equal(jobs.Idle, s.poller.State(projectKey))
	s.Zero(s.poller.Len())
}

func (s *pollerTestSuite) Test_Watch_FirstFetchWaitsForInterval() {
	s.setup(fetchResult{status: models.JobStatusSuccess})

	session := s.poller.Watch(context.Background(), projectKey)
	s.step(5999 * time.Millisecond)
	s.Zero(s.fetcher.count())

	s.clock.Step(time.Millisecond)
	s.waitDone(session)
	s.Equal(1, s.fetcher.count())
}

func (s *pollerTestSuite) Test_Watch_DeduplicatesPerProject() {
	s.setup(fetchResult{status: models.JobStatusSuccess})

	first := s.poller.Watch(context.Background(), projectKey)
	second := s.poller.Watch(context.Background(), projectKey)
	s.Same(first, second)
	s.Equal(1, s.poller.Len())

	s.step(6 * time.Second)
	s.waitDone(first)
	s.Equal(1, s.fetcher.count())
	s.Equal(1, s.settled.count())
}

func (s *pollerTestSuite) Test_Watch_SessionsPerProjectAreIndependent() {
	s.setup(fetchResult{status: models.JobStatusRunning})

	s.poller.Watch(context.Background(), projectKey)
	s.poller.Watch(context.Background(), models.ProjectKey{Environment: "dev", ProjectID: 20})

	s.Equal(2, s.poller.Len())
}

func (s *pollerTestSuite) Test_Track_FetchesImmediatelyThenAfterDelayAndInterval() {
	s.setup(fetchResult{status: models.JobStatusPending}, fetchResult{status: models.JobStatusRunning}, fetchResult{status: models.JobStatusFailed})

	session := s.poller.Track(context.Background(), projectKey)
	s.waitFetches(1)

	s.step(6 * time.Second)
	s.Equal(1, s.fetcher.count())
	s.clock.Step(500 * time.Millisecond)
	s.waitFetches(2)

	s.step(4999 * time.Millisecond)
	s.Equal(2, s.fetcher.count())
	s.clock.Step(time.Millisecond)
	s.waitDone(session)

	s.Equal(3, s.fetcher.count())
	s.Equal(1, s.settled.count())
	s.Equal(models.JobStatusFailed, s.settled.jobs[0].Status)
}

func (s *pollerTestSuite) Test_Track_RestartsExistingWatchSession() {
	s.setup(fetchResult{status: models.JobStatusPending}, fetchResult{status: models.JobStatusSuccess})

	watch := s.poller.Watch(context.Background(), projectKey)
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)

	track := s.poller.Track(context.Background(), projectKey)
	s.Same(watch, track)
	s.waitFetches(1)

	s.step(6500 * time.Millisecond)
	s.waitDone(track)
	s.Equal(2, s.fetcher.count())
	s.Equal(1, s.settled.count())
}

func (s *pollerTestSuite) Test_Settles_WhenProjectHasNoJob() {
	s.setup(fetchResult{})

	session := s.poller.Track(context.Background(), projectKey)
	s.waitDone(session)

	s.Equal(1, s.settled.count())
	s.Nil(s.settled.jobs[0])
}

func (s *pollerTestSuite) Test_FetchError_KeepsWatching() {
	s.setup(fetchResult{err: errors.New("network down")}, fetchResult{status: models.JobStatusSuccess})

	session := s.poller.Watch(context.Background(), projectKey)
	s.step(6 * time.Second)
	s.waitFetches(1)
	s.Equal(jobs.Watching, s.poller.State(projectKey))
	s.Zero(s.settled.count())

	s.step(6 * time.Second)
	s.waitDone(session)
	s.Equal(1, s.settled.count())
}

func (s *pollerTestSuite) Test_Cancel_StopsFurtherFetches() {
	s.setup(fetchResult{status: models.JobStatusRunning})
	ctx, cancel := context.WithCancel(context.Background())

	session := s.poller.Watch(ctx, projectKey)
	s.step(6 * time.Second)
	s.waitFetches(1)
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)

	cancel()
	s.waitDone(session)
	s.clock.Step(30 * time.Second)

	s.Equal(1, s.fetcher.count())
	s.Zero(s.settled.count())
	s.Equal(jobs.Idle, s.poller.State(projectKey))
}

func (s *pollerTestSuite) Test_SessionCancel_BeforeFirstFetch() {
	s.setup(fetchResult{status: models.JobStatusSuccess})

	session := s.poller.Watch(context.Background(), projectKey)
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)
	session.Cancel()
	s.waitDone(session)
	s.clock.Step(time.Minute)

	s.Zero(s.fetcher.count())
	s.Zero(s.settled.count())
}

func (s *pollerTestSuite) Test_Track_ReplacesCancelledSession() {
	s.setup(fetchResult{status: models.JobStatusSuccess})
	ctx, cancel := context.WithCancel(context.Background())

	watch := s.poller.Watch(ctx, projectKey)
	s.Require().Eventually(s.clock.HasWaiters, waitFor, time.Millisecond)
	cancel()
	s.Equal(jobs.Idle, s.poller.State(projectKey))
	track := s.poller.Track(context.Background(), projectKey)

	s.NotSame(watch, track)
	s.waitDone(watch)
	s.waitDone(track)
	s.Equal(1, s.fetcher.count())
	s.Equal(1, s.settled.count())
	s.Zero(s.poller.Len())
}

func (s *pollerTestSuite) Test_Watch_ReplacesCancelledSession() {
	s.setup(fetchResult{status: models.JobStatusRunning})
	ctx, cancel := context.WithCancel(context.Background())

	first := s.poller.Watch(ctx, projectKey)
	cancel()
	second := s.poller.Watch(context.Background(), projectKey)
	s.waitDone(first)

	s.NotSame(first, second)
	current, ok := s.poller.Session(projectKey)
	s.Require().True(ok)
	s.Same(second, current)
	second.Cancel()
	s.waitDone(second)
}

func (s *pollerTestSuite) Test_Watch_AfterSettleStartsNewSession() {
	s.setup(fetchResult{status: models.JobStatusSuccess})

	first := s.poller.Track(context.Background(), projectKey)
	s.waitDone(first)
	second := s.poller.Watch(context.Background(), projectKey)

	s.NotSame(first, second)
	s.Equal(jobs.Watching, s.poller.State(projectKey))
	second.Cancel()
	s.waitDone(second)
}

func (s *pollerTestSuite) Test_CustomOptions() {
	s.clock = testingclock.NewFakeClock(time.Now())
	s.fetcher = &scriptedFetcher{results: []fetchResult{{status: models.JobStatusSuccess}}}
	s.settled = &settleRecorder{}
	s.poller = jobs.NewPoller(s.fetcher.fetch, s.settled.settle, jobs.WithClock(s.clock),
		jobs.WithOptions(jobs.Options{WatchInterval: time.Second, DeployDelay: time.Second, DeployInterval: time.Second}))

	session := s.poller.Watch(context.Background(), projectKey)
	s.step(time.Second)
	s.waitDone(session)
	s.Equal(1, s.fetcher.count())
}

func (s *pollerTestSuite) Test_Wait_ReturnsOnceSessionsEnd() {
	s.setup(fetchResult{status: models.JobStatusRunning})
	ctx, cancel := context.WithCancel(context.Background())
	s.poller.Watch(ctx, projectKey)
	s.poller.Watch(ctx, models.ProjectKey{Environment: projectKey.Environment, ProjectID: projectKey.ProjectID + 1})

	waited := make(chan struct{})
	go func() {
		s.poller.Wait()
		close(waited)
	}()
	cancel()

	select {
	case <-waited:
	case <-time.After(waitFor):
		s.FailNow("sessions did not end")
	}
	s.Zero(s.poller.Len())
}
