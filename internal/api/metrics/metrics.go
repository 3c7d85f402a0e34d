// Package metrics defines and registers the custom Prometheus metrics of the
// operations console. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry on package load; HTTP request
// metrics come from the echoprometheus middleware wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lavanderia/ops-console/internal/core/guard"
	"github.com/lavanderia/ops-console/internal/core/session"
)

const namespace = "console"

// ── Session metrics ───────────────────────────────────────────────────────────

// StoreMutationsTotal counts session store mutations.
// Labels:
//   - family: role family (e.g. "admin")
//   - op: "set_auth", "logout" or "update_user"
var StoreMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_mutations_total",
		Help:      "Total number of session store mutations, by family and operation.",
	},
	[]string{"family", "op"},
)

// PersistFailuresTotal counts durable writes that failed. The in-memory
// session is unaffected; the change just won't survive a restart.
var PersistFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_persist_failures_total",
		Help:      "Total number of failed session persistence writes.",
	},
	[]string{"family"},
)

// RehydrationsTotal counts rehydration passes by outcome.
// Label:
//   - outcome: "restored", "empty", "corrupt", "error" or "superseded"
var RehydrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rehydrations_total",
		Help:      "Total number of session rehydration passes, by outcome.",
	},
	[]string{"family", "outcome"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard decisions.
// Label:
//   - decision: "pending", "granted", "denied_unauthenticated", "denied_wrong_role"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by family and decision.",
	},
	[]string{"family", "decision"},
)

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by family and result.",
	},
	[]string{"family", "result"},
)

// Observer feeds store and guard signals into the metrics above.
type Observer struct{}

func (Observer) StoreMutated(family, op string) {
	StoreMutationsTotal.WithLabelValues(family, op).Inc()
}

func (Observer) PersistFailed(family string) {
	PersistFailuresTotal.WithLabelValues(family).Inc()
}

func (Observer) Rehydrated(family string, outcome session.Outcome) {
	RehydrationsTotal.WithLabelValues(family, string(outcome)).Inc()
}

func (Observer) Decided(family string, d guard.Decision) {
	GuardDecisionsTotal.WithLabelValues(family, d.String()).Inc()
}

// Login records a login attempt.
func Login(family string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	LoginsTotal.WithLabelValues(family, result).Inc()
}
