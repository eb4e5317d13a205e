// Package metrics exposes Prometheus counters for the authentication
// surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth holds the session manager's counters. A nil *Auth is a valid
// no-op receiver so callers never need conditional instrumentation.
type Auth struct {
	loginSuccess  prometheus.Counter
	loginFailure  prometheus.Counter
	loginBlocked  *prometheus.CounterVec
	lockouts      prometheus.Counter
	refreshOK     prometheus.Counter
	refreshFail   prometheus.Counter
	registrations prometheus.Counter
}

// NewAuth registers the counters on reg.
func NewAuth(reg prometheus.Registerer) *Auth {
	factory := promauto.With(reg)
	return &Auth{
		loginSuccess: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "login_success_total",
			Help:      "Successful logins.",
		}),
		loginFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "login_failure_total",
			Help:      "Failed login attempts (unknown identifier or password mismatch).",
		}),
		loginBlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "login_blocked_total",
			Help:      "Logins rejected by the threat gate before account lookup.",
		}, []string{"tier"}),
		lockouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "lockouts_total",
			Help:      "Accounts locked after repeated failed logins.",
		}),
		refreshOK: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "refresh_success_total",
			Help:      "Successful refresh token rotations.",
		}),
		refreshFail: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "refresh_failure_total",
			Help:      "Rejected refresh token presentations.",
		}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "securedocs",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "New accounts created.",
		}),
	}
}

func (a *Auth) LoginSuccess() {
	if a != nil {
		a.loginSuccess.Inc()
	}
}

func (a *Auth) LoginFailure() {
	if a != nil {
		a.loginFailure.Inc()
	}
}

func (a *Auth) LoginBlocked(tier string) {
	if a != nil {
		a.loginBlocked.WithLabelValues(tier).Inc()
	}
}

func (a *Auth) Lockout() {
	if a != nil {
		a.lockouts.Inc()
	}
}

func (a *Auth) RefreshSuccess() {
	if a != nil {
		a.refreshOK.Inc()
	}
}

func (a *Auth) RefreshFailure() {
	if a != nil {
		a.refreshFail.Inc()
	}
}

func (a *Auth) Registration() {
	if a != nil {
		a.registrations.Inc()
	}
}
