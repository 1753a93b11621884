package completionpush

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

const maxRetryDelay = time.Minute

var errCircuitOpen = errors.New("circuit_open")

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case job := <-m.dispatchCh:
			metricPushQueueLen.Set(int64(len(m.dispatchCh)))
			m.push(ctx, job)
		}
	}
}

// push makes one delivery attempt and schedules the next one on failure.
func (m *Manager) push(ctx context.Context, job pushJob) {
	endpoint := job.Target.Endpoint
	if !m.circuits.allow(endpoint, time.Now()) {
		metricPushCircuitOpenTotal.Add(1)
		m.retryLater(job, errCircuitOpen)
		return
	}

	if err := m.client.Send(ctx, job.Target, job.Completion); err != nil {
		metricPushFailedTotal.Add(1)
		if m.circuits.fail(endpoint, time.Now()) {
			log.Warn().Str("target", job.Target.Name).Msg("completion_push_circuit_opened")
		}
		m.retryLater(job, err)
		return
	}

	metricPushSentTotal.Add(1)
	m.circuits.succeed(endpoint)
	log.Debug().
		Str("session_id", job.Completion.SessionID).
		Str("target", job.Target.Name).
		Int("attempt", job.Attempt).
		Msg("completion_pushed")
}

func (m *Manager) retryLater(job pushJob, err error) {
	if job.Attempt >= m.cfg.RetryMax {
		metricPushRetryDroppedTotal.Add(1)
		log.Warn().Err(err).
			Str("session_id", job.Completion.SessionID).
			Str("target", job.Target.Name).
			Int("attempt", job.Attempt).
			Msg("completion_push_dropped")
		return
	}
	job.Attempt++
	metricPushRetryTotal.Add(1)
	time.AfterFunc(retryDelay(m.cfg.RetryBase, job.Attempt), func() {
		select {
		case <-m.done:
		case m.dispatchCh <- job:
			metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		}
	})
}

// retryDelay doubles base for every attempt after the first, capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}
