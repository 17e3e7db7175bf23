// Package metrics holds the prometheus collectors of the login flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Callback outcomes.
const (
	OutcomeSessionEstablished = "session_established"
	OutcomeRejected           = "rejected"
	OutcomeFailed             = "failed"
)

// Logout results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics of the authorization code flow.
type Metrics struct {
	FlowStarted   prometheus.Counter
	Callback      *prometheus.CounterVec
	Logout        *prometheus.CounterVec
	TokenExchange prometheus.Histogram
}

// New registers the collectors at reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		FlowStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_flow_started_total",
			Help: "Number of redirects to the authorization endpoint.",
		}),
		Callback: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_callback_total",
			Help: "Number of handled authorization callbacks, differentiated by outcome.",
		}, []string{"outcome"}),
		Logout: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logout_total",
			Help: "Number of logouts, differentiated by result.",
		}, []string{"result"}),
		TokenExchange: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "token_exchange_duration_seconds",
			Help:    "Duration of the code for token request.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// CallbackDone counts a callback with the given outcome.
func (m *Metrics) CallbackDone(outcome string) {
	if m == nil {
		return
	}

	m.Callback.WithLabelValues(outcome).Inc()
}

// LogoutDone counts a logout.
func (m *Metrics) LogoutDone(err error) {
	if m == nil {
		return
	}

	result := ResultOK
	if err != nil {
		result = ResultError
	}

	m.Logout.WithLabelValues(result).Inc()
}

// FlowStart counts a redirect to the provider.
func (m *Metrics) FlowStart() {
	if m == nil {
		return
	}

	m.FlowStarted.Inc()
}

// ExchangeSince observes the duration of a token exchange started at start.
func (m *Metrics) ExchangeSince(start time.Time) {
	if m == nil {
		return
	}

	m.TokenExchange.Observe(time.Since(start).Seconds())
}
