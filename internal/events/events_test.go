package events

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBufferOrderAndReplay(t *testing.T) {
	buf := NewBuffer(10)
	ev1 := buf.Append(Event{Type: TypeEvent, Name: Started, SessionID: "s1"})
	ev2 := buf.Append(Event{Type: TypeState, SessionID: "s1"})
	ev3 := buf.Append(Event{Type: TypeDecision, SessionID: "s1"})

	if ev1.EventID != "1" || ev2.EventID != "2" || ev3.EventID != "3" {
		t.Fatalf("unexpected event ids: %s %s %s", ev1.EventID, ev2.EventID, ev3.EventID)
	}
	replay := buf.ReplayAfter("1")
	if len(replay) != 2 || replay[0].EventID != "2" || replay[1].EventID != "3" {
		t.Fatalf("unexpected replay: %+v", replay)
	}
	if all := buf.ReplayAfter(""); len(all) != 3 {
		t.Fatalf("expected full replay, got %d", len(all))
	}
	if all := buf.ReplayAfter("garbage"); len(all) != 3 {
		t.Fatalf("expected full replay for bad id, got %d", len(all))
	}
}

func TestBufferWindowIsBounded(t *testing.T) {
	buf := NewBuffer(3)
	for i := 0; i < 5; i++ {
		buf.Append(Event{Type: TypeState, SessionID: "s1"})
	}
	replay := buf.ReplayAfter("")
	if len(replay) != 3 || replay[0].EventID != "3" {
		t.Fatalf("expected events 3..5, got %+v", replay)
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	buf := NewBuffer(100)
	ch := buf.Subscribe()
	for i := 0; i < subscriberBuffer+10; i++ {
		buf.Append(Event{Type: TypeState, SessionID: "s1"})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("expected full channel of %d, got %d", subscriberBuffer, len(ch))
	}
	buf.Unsubscribe(ch)
	if buf.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestPublisherFansOut(t *testing.T) {
	p := NewPublisher(10)
	global := p.Global().Subscribe()
	session := p.Session("s1").Subscribe()

	p.Lifecycle("s1", Started, nil)
	p.State("s2", map[string]any{"n": 1})

	if got := <-session; got.Name != Started {
		t.Fatalf("unexpected session event: %+v", got)
	}
	if len(session) != 0 {
		t.Fatalf("session topic received another session's event")
	}
	first, second := <-global, <-global
	if first.SessionID != "s1" || second.SessionID != "s2" {
		t.Fatalf("unexpected global order: %+v %+v", first, second)
	}

	p.Remove("s1")
	if _, ok := <-session; ok {
		t.Fatalf("expected session channel closed after remove")
	}
	if _, ok := p.Lookup("s1"); ok {
		t.Fatalf("expected session buffer gone")
	}
}

func TestWriteSSE(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSSEHeaders(rec)
	if err := WriteSSE(rec, Event{EventID: "7", Type: TypeDecision, SessionID: "s1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "id: 7\nevent: decision\ndata: {") || !strings.HasSuffix(body, "}\n\n") {
		t.Fatalf("unexpected frame: %q", body)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("missing SSE content type")
	}
}

func TestAfterComparesNumerically(t *testing.T) {
	if !After("10", "9") {
		t.Fatal("10 should come after 9")
	}
	if After("9", "10") || After("3", "3") {
		t.Fatal("unexpected ordering")
	}
}
