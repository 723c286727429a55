// Package sse fans workspace change notifications out to browser clients
// as Server-Sent Events.
//
// Each committed change is forwarded as its own event ("note.updated",
// "chat.updated", ...) carrying the entity id. Bursts of changes are also
// coalesced into one trailing "workspace.changed" event listing the change
// kinds, which is what a sidebar needs to refetch.
package sse

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync/atomic"
	"time"
)

// SummaryEvent is the coalesced event sent after a burst of changes.
const SummaryEvent = "workspace.changed"

// Event is one SSE message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Summary is the payload of SummaryEvent.
type Summary struct {
	Kinds []string `json:"kinds"`
}

type change struct {
	kind string
	id   string
}

// Broker implements workspace.Notifier for connected browsers.
//
// The client set and the pending summary belong to the run goroutine.
type Broker struct {
	window time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	changeCh      chan change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that emits at most one SummaryEvent per window.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = time.Second
	}

	b := &Broker{
		window:        window,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func frame(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	send := func(event Event) {
		raw, err := frame(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Browser is behind; it refetches on the next summary.
			}
		}
	}

	var (
		lastSummary time.Time
		pending     = make(map[string]struct{})
		flush       <-chan time.Time
	)
	summarize := func(now time.Time) {
		send(Event{Type: SummaryEvent, Data: Summary{Kinds: slices.Sorted(maps.Keys(pending))}})
		clear(pending)
		lastSummary = now
		flush = nil
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			send(Event{Type: c.kind, Data: map[string]string{"id": c.id}})
			pending[c.kind] = struct{}{}
			if flush != nil {
				break
			}
			if wait := b.window - time.Since(lastSummary); wait > 0 {
				flush = time.After(wait)
			} else {
				summarize(time.Now())
			}

		case now := <-flush:
			summarize(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and ends every open stream.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a browser stream and returns its frame channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe drops a stream and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of open streams. It backs the
// folio_event_clients gauge.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Changed forwards a committed workspace change and schedules a summary.
func (b *Broker) Changed(kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- change{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
