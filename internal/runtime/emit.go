package runtime

import (
	"context"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
)

func (e *Engine) emitStepEnter(ctx context.Context, sessionID string, step domain.Step) {
	if e.hooks.OnStepEnter == nil {
		return
	}
	e.hooks.OnStepEnter(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepEnter, SessionID: sessionID},
		Step:      step,
	})
}

func (e *Engine) emitStepLeave(ctx context.Context, sessionID string, step domain.Step) {
	if e.hooks.OnStepLeave == nil {
		return
	}
	e.hooks.OnStepLeave(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepLeave, SessionID: sessionID},
		Step:      step,
	})
}

func (e *Engine) emitBackendCall(ctx context.Context, sessionID string, step domain.Step, op string, err error, d time.Duration) {
	if e.hooks.OnBackendCall == nil {
		return
	}
	ev := &domain.CallEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventBackendCall, SessionID: sessionID},
		Step:      step,
		Op:        op,
		Duration:  d,
	}
	if err != nil {
		ev.Kind = domain.KindOf(err)
	}
	e.hooks.OnBackendCall(ctx, ev)
}

// track emits an analytics event. Delivery never blocks the workflow.
func (e *Engine) track(ctx context.Context, name string) {
	if e.analytics == nil {
		return
	}
	ev := domain.AnalyticsEvent{
		Name: name,
		Payload: map[string]any{
			"requestId": e.requestID(),
			"productId": e.productID,
		},
	}
	ctx = context.WithoutCancel(ctx)
	e.async.Add(1)
	go func() {
		defer e.async.Done()
		e.analytics.Emit(ctx, ev)
	}()
}

// report hands a failure flagged for operational visibility to diagnostics.
func (e *Engine) report(ctx context.Context, id string, err error, description string) {
	if e.diagnostics == nil || domain.KindOf(err) == domain.KindUnauthorized {
		return
	}
	notice := domain.Notice{
		ID:              id,
		Error:           err,
		TechDescription: description,
		ToNotify:        true,
	}
	ctx = context.WithoutCancel(ctx)
	e.async.Add(1)
	go func() {
		defer e.async.Done()
		e.diagnostics.Report(ctx, notice)
	}()
}
