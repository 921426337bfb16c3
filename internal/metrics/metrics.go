// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Grant labels.
const (
	GrantPassword = "password"
	GrantRefresh  = "refresh"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeCreated     = "created"
	OutcomeLinked      = "linked"
)

// Metrics holds the collectors for one Service. A nil *Metrics records
// nothing.
type Metrics struct {
	logins        *prometheus.CounterVec
	refreshIssued prometheus.Counter
	oauthLogins   *prometheus.CounterVec
	hashDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
// Panics if registration fails (following prometheus convention).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_logins_total",
			Help: "Total number of token grants by grant type and outcome",
		}, []string{"grant", "outcome"}),
		refreshIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		}),
		oauthLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_oauth_logins_total",
			Help: "Total number of third-party logins by provider and outcome",
		}, []string{"provider", "outcome"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authcore_password_hash_duration_seconds",
			Help:    "Password hash and verify latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(m.logins, m.refreshIssued, m.oauthLogins, m.hashDuration)
	return m
}

// Login records a token grant outcome.
func (m *Metrics) Login(grant, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(grant, outcome).Inc()
}

// RefreshIssued records a minted refresh token.
func (m *Metrics) RefreshIssued() {
	if m == nil {
		return
	}
	m.refreshIssued.Inc()
}

// OAuthLogin records a third-party login outcome.
func (m *Metrics) OAuthLogin(provider, outcome string) {
	if m == nil {
		return
	}
	m.oauthLogins.WithLabelValues(provider, outcome).Inc()
}

// ObserveHash records how long a hash ("hash") or verify ("verify") took.
func (m *Metrics) ObserveHash(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}
