package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodue_uploads_total",
		Help: "Assignment uploads by result.",
	}, []string{"result"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodue_status_transitions_total",
		Help: "Faculty status decisions by target status.",
	}, []string{"status"})
)
