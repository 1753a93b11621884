package completionpush

import "expvar"

var (
	metricPushQueuedTotal       = expvar.NewInt("completion_push_queued_total")
	metricPushDroppedTotal      = expvar.NewInt("completion_push_dropped_total")
	metricPushRetryTotal        = expvar.NewInt("completion_push_retry_total")
	metricPushRetryDroppedTotal = expvar.NewInt("completion_push_retry_dropped_total")
	metricPushSentTotal         = expvar.NewInt("completion_push_sent_total")
	metricPushFailedTotal       = expvar.NewInt("completion_push_failed_total")
	metricPushCircuitOpenTotal  = expvar.NewInt("completion_push_circuit_open_total")
	metricPushQueueLen          = expvar.NewInt("completion_push_queue_len")
	metricPushConfigReloadTotal = expvar.NewInt("completion_push_config_reload_total")
	metricPushConfigReloadError = expvar.NewInt("completion_push_config_reload_error_total")
)
