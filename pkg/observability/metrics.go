package observability

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	transitions   *prometheus.CounterVec
	guardFailures *prometheus.CounterVec
	configErrors  *prometheus.CounterVec
	intents       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibase_transitions_total",
			Help: "Total number of successful transitions by contract, from_state, to_state and transition",
		}, []string{"fsm", "from_state", "to_state", "transition"}),

		guardFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibase_guard_failures_total",
			Help: "Total number of blocked transitions by contract, transition and failure class",
		}, []string{"fsm", "transition", "failure_class"}),

		configErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibase_configuration_errors_total",
			Help: "Total number of raised configuration errors by contract and code",
		}, []string{"fsm", "code"}),

		intents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibase_intents_emitted_total",
			Help: "Total number of intents emitted by contract",
		}, []string{"fsm"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "omnibase_execution_duration_seconds",
			Help:    "Duration of executor calls by contract and outcome",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}, []string{"fsm", "outcome"}),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.FSMName, e.FromState, e.ToState, e.TransitionName).Inc()
			m.intents.WithLabelValues(e.FSMName).Add(float64(e.IntentCount))
			m.duration.WithLabelValues(e.FSMName, "success").Observe(e.Duration.Seconds())
		},
		OnGuardFailure: func(_ context.Context, e *domain.TransitionEvent) {
			m.guardFailures.WithLabelValues(e.FSMName, e.TransitionName, e.FailureClass).Inc()
			m.duration.WithLabelValues(e.FSMName, "blocked").Observe(e.Duration.Seconds())
		},
		OnConfigurationError: func(_ context.Context, e *domain.ErrorEvent) {
			m.configErrors.WithLabelValues(e.FSMName, string(e.Code)).Inc()
		},
	}
}
