// Package events fans session updates out to a global topic and per-session topics.
// Each topic is a Buffer with a bounded replay window and non-blocking subscribers.
package events

import (
	"strconv"
	"sync"
	"time"
)

type Type string

const (
	TypeState    Type = "state"
	TypeEvent    Type = "event"
	TypeDecision Type = "decision"
)

// Event names carried by TypeEvent.
const (
	Started      = "started"
	Paused       = "paused"
	Resumed      = "resumed"
	HandStarted  = "hand-started"
	Completed    = "completed"
	ViewerJoined = "viewer-joined"
	ViewerLeft   = "viewer-left"
	SpeedChanged = "speed-changed"
)

type Event struct {
	EventID   string `json:"event_id"`
	Type      Type   `json:"type"`
	Name      string `json:"name,omitempty"`
	SessionID string `json:"session_id"`
	ServerTS  int64  `json:"server_ts"`
	Data      any    `json:"data,omitempty"`
}

const (
	DefaultReplayWindow = 500
	subscriberBuffer    = 32
)

type Buffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = DefaultReplayWindow
	}
	return &Buffer{
		max:      max,
		watchers: map[chan Event]struct{}{},
	}
}

// Append stamps ev with the next id and server time, keeps it for replay and offers it
// to every subscriber. Subscribers whose channel is full miss the event.
func (b *Buffer) Append(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Event{}
	}
	b.nextID++
	ev.EventID = strconv.FormatInt(b.nextID, 10)
	ev.ServerTS = time.Now().UnixMilli()
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
			metricEventsDropped.Add(1)
		}
	}
	return ev
}

// ReplayAfter returns the retained events newer than lastEventID, everything when the
// id is empty or unparsable.
func (b *Buffer) ReplayAfter(lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		return append([]Event(nil), b.events...)
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *Buffer) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *Buffer) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *Buffer) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers)
}

func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}

// After reports whether event id a was assigned after b. Ids are compared numerically.
func After(a, b string) bool {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA != nil || errB != nil {
		return a != b
	}
	return x > y
}
