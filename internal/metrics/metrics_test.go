package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := New(reg)

	m.Login(GrantPassword, OutcomeSuccess)
	m.RefreshIssued()
	m.OAuthLogin("google", OutcomeCreated)
	m.ObserveHash("verify", 5*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}

	for _, name := range []string{
		"authcore_logins_total",
		"authcore_refresh_tokens_issued_total",
		"authcore_oauth_logins_total",
		"authcore_password_hash_duration_seconds",
	} {
		assert.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Login(GrantPassword, OutcomeInvalid)
	m.Login(GrantPassword, OutcomeInvalid)
	m.Login(GrantRefresh, OutcomeSuccess)
	m.RefreshIssued()
	m.OAuthLogin("github", OutcomeLinked)

	assert.InDelta(t, 2, testutil.ToFloat64(m.logins.WithLabelValues(GrantPassword, OutcomeInvalid)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.logins.WithLabelValues(GrantRefresh, OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.refreshIssued), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.oauthLogins.WithLabelValues("github", OutcomeLinked)), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Login(GrantPassword, OutcomeSuccess)
		m.RefreshIssued()
		m.OAuthLogin("google", OutcomeCreated)
		m.ObserveHash("hash", time.Second)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
