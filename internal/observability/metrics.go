package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. HTTP traffic metrics live in the middleware package.
var (
	// Predictions counts generated readings by source ("remote" or "local").
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarot_predictions_total",
			Help: "Generated predictions by source.",
		},
		[]string{"source"},
	)

	// RemoteFailures counts failed webhook attempts by failure kind.
	RemoteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarot_prediction_remote_failures_total",
			Help: "Failed remote prediction attempts by reason.",
		},
		[]string{"reason"},
	)

	// CodeRedemptions counts redemption attempts by outcome
	// ("ok", "not_found", "used", "expired", "error").
	CodeRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarot_code_redemptions_total",
			Help: "Subscription code redemption attempts by result.",
		},
		[]string{"result"},
	)

	// ProfilesCreated counts profiles created on first contact.
	ProfilesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tarot_profiles_created_total",
			Help: "User profiles created on first contact.",
		},
	)
)

func init() {
	prometheus.MustRegister(Predictions, RemoteFailures, CodeRedemptions, ProfilesCreated)
}
