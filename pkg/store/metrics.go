package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Subsystem: "store",
		Name:      "ops_total",
		Help:      "Completed store operations by kind.",
	}, []string{"op"})

	opFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Subsystem: "store",
		Name:      "op_failures_total",
		Help:      "Failed store operations by kind.",
	}, []string{"op"})
)
