package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dividend", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dividend", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// Reconciliations counts reconciler outcomes per confirmation channel
	// (redirect|webhook) and outcome (recorded|duplicate|user_not_found|incomplete|ignored|not_paid|error).
	Reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dividend", Name: "purchase_reconciliations_total", Help: "Purchase reconciliation outcomes by channel."},
		[]string{"channel", "outcome"},
	)
	WebhookRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dividend", Name: "webhook_rejected_total", Help: "Rejected gateway webhooks by reason."},
		[]string{"reason"},
	)
	RenderCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dividend", Name: "render_cache_total", Help: "Rendered article cache lookups by result."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Reconciliations)
	reg.MustRegister(WebhookRejected)
	reg.MustRegister(RenderCache)
}
