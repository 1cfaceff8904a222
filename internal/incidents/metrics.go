package incidents

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	incidentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "incidentbay",
		Subsystem: "incidents",
		Name:      "created_total",
		Help:      "Total number of incidents recorded",
	})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "incidentbay",
		Subsystem: "incidents",
		Name:      "status_transitions_total",
		Help:      "Committed incident status transitions",
	}, []string{"from", "to"})
)
