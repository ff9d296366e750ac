package test

import (
	"context"
	"testing"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/gateway/mock"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/equinor/radix-deploy-dashboard/api/orchestrator"
	"github.com/equinor/radix-deploy-dashboard/api/store"
	"github.com/golang/mock/gomock"
	testingclock "k8s.io/utils/clock/testing"
)

// Dashboard Orchestrator and store wired to a mocked upstream and a fake clock
type Dashboard struct {
	Gateway      *mock.MockClient
	Store        *store.Store
	Clock        *testingclock.FakeClock
	Orchestrator *orchestrator.Orchestrator
}

// NewDashboard Constructor. The orchestrator is closed when the test ends.
func NewDashboard(t *testing.T) *Dashboard {
	d := Dashboard{
		Gateway: mock.NewMockClient(gomock.NewController(t)),
		Store:   store.New(),
		Clock:   testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	d.Orchestrator = orchestrator.New(context.Background(), d.Gateway, d.Store, orchestrator.WithClock(d.Clock))
	t.Cleanup(d.Orchestrator.Close)
	return &d
}

// LoadEnvironments Puts the environments in the store as if they had been fetched
func (d *Dashboard) LoadEnvironments(environments ...*models.Environment) {
	d.Store.CompleteEnvironments(environments)
}
