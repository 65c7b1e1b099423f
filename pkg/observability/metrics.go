package observability

import (
	"context"
	"sync"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records step transitions and backend calls.
type Metrics struct {
	transitions *prometheus.CounterVec
	calls       *prometheus.CounterVec
	duration    *prometheus.HistogramVec

	mu   sync.Mutex
	left map[string]domain.Step
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_step_transitions_total",
				Help: "Total number of step transitions",
			},
			[]string{"from", "to"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_backend_calls_total",
				Help: "Total number of backend calls by outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboard_backend_call_duration_seconds",
				Help:    "Duration of backend calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		left: make(map[string]domain.Step),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.calls, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.mu.Lock()
			m.left[e.SessionID] = e.Step
			m.mu.Unlock()
		},
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.mu.Lock()
			from, ok := m.left[e.SessionID]
			delete(m.left, e.SessionID)
			m.mu.Unlock()

			label := string(from)
			if !ok {
				label = "start"
			}
			m.transitions.WithLabelValues(label, string(e.Step)).Inc()
		},
		OnBackendCall: func(_ context.Context, e *domain.CallEvent) {
			outcome := "success"
			if e.Kind != "" {
				outcome = string(e.Kind)
			}
			m.calls.WithLabelValues(e.Op, outcome).Inc()
			m.duration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
		},
	}
}
