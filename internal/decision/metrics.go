package decision

import "expvar"

var (
	metricDecisionCalls     = expvar.NewInt("decision_calls_total")
	metricDecisionTimeouts  = expvar.NewInt("decision_timeouts_total")
	metricDecisionErrors    = expvar.NewInt("decision_errors_total")
	metricDecisionIllegal   = expvar.NewInt("decision_illegal_total")
	metricDecisionFallbacks = expvar.NewInt("decision_fallbacks_total")
)
