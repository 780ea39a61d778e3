// Package sse implements a server-sent events broker used by the preview
// server to push rebuild notifications to connected browsers.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one message pushed to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Broker fans events out to subscribers. All subscriber state is owned by the
// run loop goroutine; Subscribe, Unsubscribe and Publish communicate with it
// over channels only.
type Broker struct {
	subscribe   chan chan Event
	unsubscribe chan chan Event
	events      chan Event
	done        chan struct{}
	closed      atomic.Bool
}

// NewBroker creates a broker and starts its run loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribe:   make(chan chan Event),
		unsubscribe: make(chan chan Event),
		events:      make(chan Event, 16),
		done:        make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	subs := make(map[chan Event]struct{})
	for {
		select {
		case ch := <-b.subscribe:
			subs[ch] = struct{}{}
		case ch := <-b.unsubscribe:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		case ev := <-b.events:
			for ch := range subs {
				select {
				case ch <- ev:
				default:
					// Slow subscriber: drop the event rather than block
					// the loop.
				}
			}
		case <-b.done:
			for ch := range subs {
				close(ch)
			}
			return
		}
	}
}

// Publish sends an event to all current subscribers.
func (b *Broker) Publish(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// Close stops the run loop and closes all subscriber channels. Safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 8)
	select {
	case b.subscribe <- ch:
	case <-b.done:
		return
	}
	defer func() {
		select {
		case b.unsubscribe <- ch:
		case <-b.done:
		}
	}()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

// WaitClosed blocks until the broker is closed or ctx expires. Used in tests.
func (b *Broker) WaitClosed(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
