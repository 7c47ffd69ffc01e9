package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DonationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "donr", Name: "donations_created_total", Help: "Number of donations created."},
	)
	DonationsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "donr", Name: "donations_claimed_total", Help: "Number of donations claimed."},
	)
	DonationsDistributed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "donr", Name: "donations_distributed_total", Help: "Number of donations marked distributed."},
	)
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "donr", Name: "notifications_sent_total", Help: "Number of push notifications delivered."},
	)
	NotificationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "donr", Name: "notifications_failed_total", Help: "Number of push notifications that failed to deliver."},
	)
	GeocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "donr", Name: "geocode_lookups_total", Help: "Number of geocoding lookups by provider and result."},
		[]string{"provider", "result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "donr", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "donr", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DonationsCreated)
	reg.MustRegister(DonationsClaimed)
	reg.MustRegister(DonationsDistributed)
	reg.MustRegister(NotificationsSent)
	reg.MustRegister(NotificationsFailed)
	reg.MustRegister(GeocodeLookups)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
