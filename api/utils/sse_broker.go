package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/rs/zerolog/log"
)

const (
	subscriberBuffer = 32
	keepAliveEvery   = 30 * time.Second
)

// Broker Fans published events out to every subscriber whose filter accepts them.
// Publish never blocks; a subscriber that does not keep up loses events.
type Broker[T any] struct {
	mu          sync.Mutex
	subscribers map[*subscription[T]]struct{}
}

type subscription[T any] struct {
	events chan T
	filter func(T) bool
}

// NewBroker Constructor
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subscribers: map[*subscription[T]]struct{}{}}
}

// Publish Delivers the event to the matching subscribers
func (b *Broker[T]) Publish(event T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
		}
	}
}

// Subscribe Registers a subscriber. The returned function unsubscribes and closes the channel.
func (b *Broker[T]) Subscribe(filter func(T) bool) (<-chan T, func()) {
	sub := &subscription[T]{events: make(chan T, subscriberBuffer), filter: filter}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, sub)
			b.mu.Unlock()
			close(sub.events)
		})
	}
}

// Len Number of subscribers
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// ServeSSE Writes each event as a server-sent event named eventName until the client
// disconnects or the channel is closed
func ServeSSE[T any](w http.ResponseWriter, r *http.Request, eventName string, events <-chan T) error {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			return &radixhttp.Error{Type: radixhttp.Server, Message: "Streaming unsupported", Err: err}
		}
		return err
	}

	logger := log.Ctx(r.Context())
	logger.Debug().Str("event", eventName).Msg("Client subscribed")
	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("event", eventName).Msg("Client unsubscribed")
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return err
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName, data); err != nil {
				return err
			}
		}
		if err := rc.Flush(); err != nil {
			return err
		}
	}
}
