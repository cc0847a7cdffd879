package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mwmcp_auth_failures_total",
			Help: "Rejected requests by auth failure kind",
		},
		[]string{"kind"},
	)
	QuotaRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mwmcp_quota_rejections_total",
			Help: "Requests blocked by the daily token quota",
		},
		[]string{"tenant"},
	)
	TokensConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mwmcp_tokens_consumed_total",
			Help: "LLM tokens recorded to the usage ledger",
		},
		[]string{"tenant"},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		AuthFailures,
		QuotaRejections,
		TokensConsumed,
	)
}
