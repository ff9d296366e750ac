package utils_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/equinor/radix-deploy-dashboard/api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Env string `json:"env"`
	N   int    `json:"n"`
}

func Test_Broker_FiltersAndUnsubscribes(t *testing.T) {
	broker := utils.NewBroker[testEvent]()
	dev, unsubscribeDev := broker.Subscribe(func(e testEvent) bool { return e.Env == "dev" })
	all, unsubscribeAll := broker.Subscribe(nil)
	defer unsubscribeAll()
	require.Equal(t, 2, broker.Len())

	broker.Publish(testEvent{Env: "dev", N: 1})
	broker.Publish(testEvent{Env: "prod", N: 2})

	assert.Equal(t, testEvent{Env: "dev", N: 1}, <-dev)
	assert.Equal(t, testEvent{Env: "dev", N: 1}, <-all)
	assert.Equal(t, testEvent{Env: "prod", N: 2}, <-all)
	assert.Empty(t, dev)

	unsubscribeDev()
	unsubscribeDev()
	assert.Equal(t, 1, broker.Len())
	_, open := <-dev
	assert.False(t, open)
	broker.Publish(testEvent{Env: "dev", N: 3})
	assert.Equal(t, testEvent{Env: "dev", N: 3}, <-all)
}

func Test_Broker_PublishNeverBlocks(t *testing.T) {
	broker := utils.NewBroker[int]()
	events, unsubscribe := broker.Subscribe(nil)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := range 1000 {
			broker.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, 0, <-events)
}

func Test_ServeSSE_WritesEventsUntilClosed(t *testing.T) {
	events := make(chan testEvent, 2)
	events <- testEvent{Env: "dev", N: 1}
	events <- testEvent{Env: "dev", N: 2}
	close(events)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/changes", nil)
	require.NoError(t, utils.ServeSSE(rr, req, "change", events))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "event: change\ndata: {\"env\":\"dev\",\"n\":1}\n\nevent: change\ndata: {\"env\":\"dev\",\"n\":2}\n\n", rr.Body.String())
}

func Test_ServeSSE_StopsWhenClientDisconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/changes", nil).WithContext(ctx)
	events := make(chan testEvent)

	result := make(chan error)
	go func() { result <- utils.ServeSSE(httptest.NewRecorder(), req, "change", events) }()
	cancel()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
}
