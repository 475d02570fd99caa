package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegistryRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commentera_registry_refresh_total",
			Help: "Customer registry refresh ticks by result",
		},
		[]string{"result"}, // success|failure
	)

	RegistrySkippedRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "commentera_registry_skipped_rows_total",
			Help: "Malformed config source rows skipped during refresh",
		},
	)

	RegistryCustomers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "commentera_registry_customers",
			Help: "Customer aliases currently held in the registry snapshot",
		},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commentera_tokens_issued_total",
			Help: "Bearer tokens issued by outcome",
		},
		[]string{"outcome"}, // ok|unknown_customer|inactive
	)

	BadgeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commentera_badge_ops_total",
			Help: "Badge mutations by operation and outcome",
		},
		[]string{"op", "outcome"}, // add|replace|remove , ok|rejected|error
	)

	AuditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commentera_audit_events_total",
			Help: "Badge audit events by pipeline stage",
		},
		[]string{"stage"}, // consumed|stored|webhook_ok|webhook_failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RegistryRefreshTotal,
		RegistrySkippedRowsTotal,
		RegistryCustomers,
		TokensIssuedTotal,
		BadgeOpsTotal,
		AuditEventsTotal,
	)
}
