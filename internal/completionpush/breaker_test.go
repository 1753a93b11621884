package completionpush

import (
	"testing"
	"time"
)

func TestCircuitsOpenAfterThresholdAndCoolDown(t *testing.T) {
	c := newCircuits(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if c.fail("https://a", now) {
		t.Fatal("first failure should not trip the circuit")
	}
	if !c.fail("https://a", now) {
		t.Fatal("second failure should trip the circuit")
	}
	if c.allow("https://a", now.Add(30*time.Second)) {
		t.Fatal("expected open circuit during cooldown")
	}
	if !c.allow("https://b", now) {
		t.Fatal("other endpoints are unaffected")
	}
	if !c.allow("https://a", now.Add(time.Minute)) {
		t.Fatal("expected circuit to close after cooldown")
	}

	c.fail("https://a", now)
	c.succeed("https://a")
	if c.fail("https://a", now) {
		t.Fatal("success should reset the failure count")
	}
}

func TestRetryDelayDoublesUpToCap(t *testing.T) {
	base := 500 * time.Millisecond
	cases := map[int]time.Duration{
		1:  500 * time.Millisecond,
		2:  time.Second,
		3:  2 * time.Second,
		20: maxRetryDelay,
	}
	for attempt, want := range cases {
		if got := retryDelay(base, attempt); got != want {
			t.Fatalf("retryDelay(%d) = %s, want %s", attempt, got, want)
		}
	}
}
