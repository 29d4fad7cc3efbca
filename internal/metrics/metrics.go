package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes
const (
	OutcomeAwaitingModeration   = "awaiting_moderation"
	OutcomeAwaitingVerification = "awaiting_verification"
	OutcomeFlagged              = "flagged"
	OutcomeSpam                 = "spam"
	OutcomeInvalid              = "invalid"
	OutcomeProfanity            = "profanity"
	OutcomeRateLimited          = "rate_limited"
	OutcomeRecaptchaFailed      = "recaptcha_failed"
	OutcomeError                = "error"
)

// Metrics holds the service counters on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	submissions *prometheus.CounterVec
	reactions   prometheus.Counter
	logins      *prometheus.CounterVec
	moderation  *prometheus.CounterVec
	imported    prometheus.Counter
	skipped     prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comments",
			Name:      "submissions_total",
			Help:      "Comment submissions by pipeline outcome.",
		}, []string{"outcome"}),
		reactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "comments",
			Name:      "reactions_total",
			Help:      "Reaction increments accepted.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comments",
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comments",
			Name:      "moderation_actions_total",
			Help:      "Moderation actions that changed a comment.",
		}, []string{"action"}),
		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "comments",
			Name:      "imported_total",
			Help:      "Comments persisted by bulk import.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "comments",
			Name:      "import_skipped_total",
			Help:      "Duplicate comments skipped by bulk import.",
		}),
	}
	reg.MustRegister(
		m.submissions, m.reactions, m.logins, m.moderation, m.imported, m.skipped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reaction() {
	if m == nil {
		return
	}
	m.reactions.Inc()
}

func (m *Metrics) Login(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Moderation(action string) {
	if m == nil {
		return
	}
	m.moderation.WithLabelValues(action).Inc()
}

func (m *Metrics) Imported(imported, skipped int) {
	if m == nil {
		return
	}
	m.imported.Add(float64(imported))
	m.skipped.Add(float64(skipped))
}
