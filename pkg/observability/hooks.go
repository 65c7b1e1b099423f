package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/onboard/pkg/domain"
)

// LogHooks logs every lifecycle event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "Enter Step", "session_id", e.SessionID, "step", e.Step)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "Leave Step", "session_id", e.SessionID, "step", e.Step)
		},
		OnBackendCall: func(ctx context.Context, e *domain.CallEvent) {
			if e.Kind != "" {
				logger.DebugContext(ctx, "Backend Call (Error)", "session_id", e.SessionID, "op", e.Op, "kind", e.Kind, "duration", e.Duration)
				return
			}
			logger.DebugContext(ctx, "Backend Call (Success)", "session_id", e.SessionID, "op", e.Op, "duration", e.Duration)
		},
	}
}

// Combine fans every event out to all hooks, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, e)
				}
			}
		},
		OnBackendCall: func(ctx context.Context, e *domain.CallEvent) {
			for _, h := range hooks {
				if h.OnBackendCall != nil {
					h.OnBackendCall(ctx, e)
				}
			}
		},
	}
}
