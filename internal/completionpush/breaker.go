package completionpush

import (
	"sync"
	"time"
)

// circuits tracks consecutive failures per webhook endpoint. An endpoint that fails
// threshold times in a row is skipped until its cooldown passes.
type circuits struct {
	threshold int
	cooldown  time.Duration

	mu    sync.Mutex
	state map[string]*circuit
}

type circuit struct {
	failures  int
	openUntil time.Time
}

func newCircuits(threshold int, cooldown time.Duration) *circuits {
	return &circuits{threshold: threshold, cooldown: cooldown, state: map[string]*circuit{}}
}

func (c *circuits) allow(endpoint string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.state[endpoint]
	return !ok || !now.Before(s.openUntil)
}

// fail records a failed send and reports whether it tripped the circuit.
func (c *circuits) fail(endpoint string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.state[endpoint]
	if !ok {
		s = &circuit{}
		c.state[endpoint] = s
	}
	s.failures++
	if s.failures < c.threshold {
		return false
	}
	s.failures = 0
	s.openUntil = now.Add(c.cooldown)
	return true
}

func (c *circuits) succeed(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, endpoint)
}
