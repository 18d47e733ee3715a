// Package metrics exposes the Prometheus collectors for the trading
// surface. The serve daemon registers them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersPlaced counts orders that reached the broker, by final status.
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vestbridge",
		Name:      "orders_placed_total",
		Help:      "Orders sent to the broker, by final status.",
	}, []string{"status"})

	// OrdersBlocked counts orders rejected by mandate evaluation.
	OrdersBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vestbridge",
		Name:      "orders_blocked_total",
		Help:      "Orders blocked by mandate checks before reaching the broker.",
	})

	// MandateEvaluations counts full mandate evaluations, by verdict.
	MandateEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vestbridge",
		Name:      "mandate_evaluations_total",
		Help:      "Mandate evaluations, by verdict.",
	}, []string{"verdict"})

	// AuditEntriesWritten counts appended audit entries, by action.
	AuditEntriesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vestbridge",
		Name:      "audit_entries_written_total",
		Help:      "Audit log entries appended, by action.",
	}, []string{"action"})
)
