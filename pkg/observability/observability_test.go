package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(t domain.EventType, id string, s domain.Step) *domain.StepEvent {
	return &domain.StepEvent{EventBase: domain.EventBase{Type: t, SessionID: id}, Step: s}
}

func TestMetrics_Transitions(t *testing.T) {
	ctx := context.Background()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	h := m.Hooks()

	h.OnStepEnter(ctx, step(domain.EventStepEnter, "s1", domain.StepRetrieve))
	h.OnStepLeave(ctx, step(domain.EventStepLeave, "s1", domain.StepRetrieve))
	h.OnStepEnter(ctx, step(domain.EventStepEnter, "s1", domain.StepSelect))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("start", "retrieve")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("retrieve", "select")))
	assert.Empty(t, m.left, "pending leaves are consumed")
}

func TestMetrics_BackendCalls(t *testing.T) {
	ctx := context.Background()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	h := m.Hooks()

	h.OnBackendCall(ctx, &domain.CallEvent{Op: "submit_onboarding", Duration: 20 * time.Millisecond})
	h.OnBackendCall(ctx, &domain.CallEvent{Op: "submit_onboarding", Kind: domain.KindGenericFailure, Duration: time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("submit_onboarding", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("submit_onboarding", "generic_failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	var got []string
	a := domain.LifecycleHooks{OnStepEnter: func(context.Context, *domain.StepEvent) { got = append(got, "a") }}
	b := domain.LifecycleHooks{
		OnStepEnter:   func(context.Context, *domain.StepEvent) { got = append(got, "b") },
		OnBackendCall: func(context.Context, *domain.CallEvent) { got = append(got, "call") },
	}

	h := Combine(a, b)
	h.OnStepEnter(context.Background(), step(domain.EventStepEnter, "s1", domain.StepDone))
	h.OnStepLeave(context.Background(), step(domain.EventStepLeave, "s1", domain.StepDone))
	h.OnBackendCall(context.Background(), &domain.CallEvent{})

	assert.Equal(t, []string{"a", "b", "call"}, got)
}

func TestLogCollaborators(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	(&LogAnalytics{Logger: logger}).Emit(ctx, domain.AnalyticsEvent{Name: domain.EventSubmitSuccess})
	(&LogDiagnostics{Logger: logger}).Report(ctx, domain.Notice{ID: domain.NoticeSubmitError, TechDescription: "submit failed", Error: errors.New("boom")})
	(&LogNotifier{Logger: logger}).Notify(ctx, domain.Notice{ID: domain.NoticeTokenNotValid})
	LogHooks(logger).OnBackendCall(ctx, &domain.CallEvent{Op: "retrieve_eligible_businesses", Kind: domain.KindUnauthorized})

	out := buf.String()
	assert.Contains(t, out, domain.EventSubmitSuccess)
	assert.Contains(t, out, "notice_id="+domain.NoticeSubmitError)
	assert.Contains(t, out, "notice_id="+domain.NoticeTokenNotValid)
	assert.Contains(t, out, "kind=unauthorized")
}
