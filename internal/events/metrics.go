package events

import "expvar"

var (
	metricEventsPublished = expvar.NewInt("events_published_total")
	metricEventsDropped   = expvar.NewInt("events_dropped_total")
)
