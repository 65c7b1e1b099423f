package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// TokenSource supplies the bearer credential of the authenticated session.
// It is read synchronously before every backend request.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// SessionNotifier is told, fire-and-forget, that the session is no longer valid.
type SessionNotifier interface {
	Notify(ctx context.Context, notice domain.Notice)
}

// AnalyticsEmitter receives observational events at major transitions.
type AnalyticsEmitter interface {
	Emit(ctx context.Context, event domain.AnalyticsEvent)
}

// DiagnosticsReporter receives failures flagged for operational visibility.
type DiagnosticsReporter interface {
	Report(ctx context.Context, notice domain.Notice)
}
