// Package telemetry holds the service-level Prometheus collectors.
// Store-level collectors live next to the store.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesIngested counts messages accepted by ingestion kind
	// (unread, last, existing).
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Name:      "messages_ingested_total",
		Help:      "Messages ingested by kind.",
	}, []string{"kind"})

	// SlicesAttached counts older/newer slice attachments.
	SlicesAttached = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Name:      "slices_attached_total",
		Help:      "History slices attached by direction.",
	}, []string{"direction"})

	// ReadsApplied counts read-cursor advances by side.
	ReadsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Name:      "reads_applied_total",
		Help:      "Read cursor advances by side.",
	}, []string{"side"})

	// SendActions counts registered peer activities by kind.
	SendActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Name:      "send_actions_total",
		Help:      "Registered send actions by kind.",
	}, []string{"kind"})

	// ActiveConversations gauges registered conversations.
	ActiveConversations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "timelined",
		Name:      "active_conversations",
		Help:      "Conversations currently registered.",
	})

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Name:      "http_requests_total",
		Help:      "API requests by route and status class.",
	}, []string{"route", "status"})

	// SweepRuns counts background sweep executions by job.
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timelined",
		Name:      "sweep_runs_total",
		Help:      "Background sweep executions by job.",
	}, []string{"job"})
)
