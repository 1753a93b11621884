package events

import "sync"

// Publisher appends every update to the global buffer and to the session's own buffer.
type Publisher struct {
	mu       sync.Mutex
	window   int
	global   *Buffer
	sessions map[string]*Buffer
}

func NewPublisher(window int) *Publisher {
	return &Publisher{
		window:   window,
		global:   NewBuffer(window),
		sessions: map[string]*Buffer{},
	}
}

func (p *Publisher) Global() *Buffer { return p.global }

// Session returns the session's buffer, creating it on first use.
func (p *Publisher) Session(sessionID string) *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf, ok := p.sessions[sessionID]
	if !ok {
		buf = NewBuffer(p.window)
		p.sessions[sessionID] = buf
	}
	return buf
}

func (p *Publisher) Lookup(sessionID string) (*Buffer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf, ok := p.sessions[sessionID]
	return buf, ok
}

// Remove closes the session's buffer, ending any open streams on it.
func (p *Publisher) Remove(sessionID string) {
	p.mu.Lock()
	buf, ok := p.sessions[sessionID]
	delete(p.sessions, sessionID)
	p.mu.Unlock()
	if ok {
		buf.Close()
	}
}

func (p *Publisher) Publish(ev Event) Event {
	metricEventsPublished.Add(1)
	out := p.Session(ev.SessionID).Append(ev)
	p.global.Append(ev)
	return out
}

func (p *Publisher) State(sessionID string, snapshot any) Event {
	return p.Publish(Event{Type: TypeState, SessionID: sessionID, Data: snapshot})
}

func (p *Publisher) Lifecycle(sessionID, name string, data any) Event {
	return p.Publish(Event{Type: TypeEvent, Name: name, SessionID: sessionID, Data: data})
}

func (p *Publisher) Decision(sessionID string, data any) Event {
	return p.Publish(Event{Type: TypeDecision, SessionID: sessionID, Data: data})
}

func (p *Publisher) Close() {
	p.mu.Lock()
	bufs := p.sessions
	p.sessions = map[string]*Buffer{}
	p.mu.Unlock()
	for _, buf := range bufs {
		buf.Close()
	}
	p.global.Close()
}
