package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

var (
	_ ports.AnalyticsEmitter    = (*LogAnalytics)(nil)
	_ ports.DiagnosticsReporter = (*LogDiagnostics)(nil)
	_ ports.SessionNotifier     = (*LogNotifier)(nil)
)

// LogAnalytics writes analytics events to a structured logger.
type LogAnalytics struct {
	Logger *slog.Logger
}

// Emit implements ports.AnalyticsEmitter.
func (a *LogAnalytics) Emit(ctx context.Context, ev domain.AnalyticsEvent) {
	a.Logger.InfoContext(ctx, "analytics", "event", ev.Name, "payload", ev.Payload)
}

// LogDiagnostics writes reportable failures to a structured logger.
type LogDiagnostics struct {
	Logger *slog.Logger
}

// Report implements ports.DiagnosticsReporter.
func (d *LogDiagnostics) Report(ctx context.Context, n domain.Notice) {
	d.Logger.ErrorContext(ctx, n.TechDescription,
		"notice_id", n.ID,
		"to_notify", n.ToNotify,
		"err", n.Error,
	)
}

// LogNotifier logs session expiry notices. Hosts with a real session
// typically replace it with one that ends the session.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements ports.SessionNotifier.
func (n *LogNotifier) Notify(ctx context.Context, notice domain.Notice) {
	n.Logger.WarnContext(ctx, "session no longer valid",
		"notice_id", notice.ID,
		"title", notice.DisplayableTitle,
		"err", notice.Error,
	)
}
