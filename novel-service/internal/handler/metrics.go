package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	unlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_unlocks_total",
		Help: "Total number of successful workspace unlocks.",
	})

	sessionVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_session_verifications_total",
			Help: "Total number of session token verification attempts by status.",
		},
		[]string{"status"},
	)

	illustrationTasksQueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_illustration_tasks_queued_total",
		Help: "Total number of illustration generation tasks accepted over HTTP.",
	})

	versionNodesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_version_nodes_created_total",
			Help: "Total number of version nodes created by version type.",
		},
		[]string{"type"},
	)
)
