package identity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submittedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "requests_submitted_total",
		Help:      "Number of execution requests submitted.",
	})
	requestApprovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "request_approvals_total",
		Help:      "Number of approvals and disapprovals recorded.",
	}, []string{"approve"})
	executedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "requests_executed_total",
		Help:      "Number of execution requests executed successfully.",
	})
	failedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "requests_failed_total",
		Help:      "Number of execution requests whose execution failed.",
	})
)
