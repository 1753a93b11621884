package arena

import "expvar"

var (
	metricSessionsCreated   = expvar.NewInt("arena_sessions_created_total")
	metricSessionsCompleted = expvar.NewInt("arena_sessions_completed_total")
	metricSessionsRecovered = expvar.NewInt("arena_sessions_recovered_total")
	metricSessionsSwept     = expvar.NewInt("arena_sessions_swept_total")
	metricSessionsActive    = expvar.NewInt("arena_session_loops_active")

	metricTicks              = expvar.NewInt("arena_ticks_total")
	metricTicksSkipped       = expvar.NewInt("arena_ticks_skipped_total")
	metricDecisionsDiscarded = expvar.NewInt("arena_decisions_discarded_total")
	metricActionsRejected    = expvar.NewInt("arena_actions_rejected_total")
	metricHumanActions       = expvar.NewInt("arena_human_actions_total")

	metricPersistErrors    = expvar.NewInt("arena_persist_errors_total")
	metricCompletionErrors = expvar.NewInt("arena_completion_errors_total")
)
