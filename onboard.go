package onboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/session"
)

// Engine is the high-level entry point of the onboarding library.
// It wraps the internal runtime and the session manager behind a small API.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	backend  ports.Backend

	store       ports.SessionStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	ledger      ports.OutcomeLedger
	analytics   ports.AnalyticsEmitter
	diagnostics ports.DiagnosticsReporter
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	productID   string
	refetch     bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the durable session store (default: in memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker coordinates session access across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLedger records terminal submission outcomes beyond a session.
func WithLedger(ledger ports.OutcomeLedger) Option {
	return func(e *Engine) {
		e.ledger = ledger
	}
}

// WithAnalytics sets the analytics collaborator.
func WithAnalytics(a ports.AnalyticsEmitter) Option {
	return func(e *Engine) {
		e.analytics = a
	}
}

// WithDiagnostics sets the diagnostics collaborator.
func WithDiagnostics(d ports.DiagnosticsReporter) Option {
	return func(e *Engine) {
		e.diagnostics = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProductID sets the product businesses are onboarded on.
func WithProductID(id string) Option {
	return func(e *Engine) {
		e.productID = id
	}
}

// WithStatusRefetch toggles the onboarding status query after an accepted submission.
func WithStatusRefetch(enabled bool) Option {
	return func(e *Engine) {
		e.refetch = enabled
	}
}

// New initializes an onboarding engine over a backend.
func New(backend ports.Backend, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("onboard: a backend is required")
	}

	eng := &Engine{
		backend:   backend,
		productID: domain.DefaultProductID,
		refetch:   true,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
		if eng.lockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
		}
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.runtime = runtime.NewEngine(eng.backend, eng.sessions,
		runtime.WithLedger(eng.ledger),
		runtime.WithAnalytics(eng.analytics),
		runtime.WithDiagnostics(eng.diagnostics),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithProductID(eng.productID),
		runtime.WithStatusRefetch(eng.refetch),
	)
	return eng, nil
}

// Start begins a workflow at RETRIEVE, replacing any earlier history of the session.
func (e *Engine) Start(ctx context.Context, sessionID string, user domain.User) (*domain.View, error) {
	return e.runtime.Start(ctx, sessionID, user)
}

// StartManual begins a workflow for a business entered by hand.
func (e *Engine) StartManual(ctx context.Context, sessionID string, user domain.User, business domain.Business) (*domain.View, error) {
	return e.runtime.StartManual(ctx, sessionID, user, business)
}

// DraftContactEmail records the contact address typed during SELECT without committing it.
func (e *Engine) DraftContactEmail(ctx context.Context, sessionID, email string) (*domain.View, error) {
	return e.runtime.DraftContactEmail(ctx, sessionID, email)
}

// Select chooses a candidate and runs the workflow to its next halt.
func (e *Engine) Select(ctx context.Context, sessionID string, user domain.User, taxCode string) (*domain.View, error) {
	return e.runtime.Select(ctx, sessionID, user, taxCode)
}

// Advance re-enters the current step.
func (e *Engine) Advance(ctx context.Context, sessionID string, user domain.User) (*domain.View, error) {
	return e.runtime.Advance(ctx, sessionID, user)
}

// Resume renders the committed state without network calls.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.runtime.Resume(ctx, sessionID)
}

// Back moves to the previous history entry.
func (e *Engine) Back(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.runtime.Back(ctx, sessionID)
}

// Forward moves to the next history entry.
func (e *Engine) Forward(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.runtime.Forward(ctx, sessionID)
}

// Cancel abandons the current step and discards any in-flight response.
func (e *Engine) Cancel(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.runtime.Cancel(ctx, sessionID)
}

// Delete removes the session.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.runtime.Delete(ctx, sessionID)
}

// History returns the committed history of a session.
func (e *Engine) History(ctx context.Context, sessionID string) (*domain.History, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Sessions lists the stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// ProductID returns the product businesses are onboarded on.
func (e *Engine) ProductID() string {
	return e.productID
}

// Wait blocks until pending analytics and diagnostics deliveries finish.
func (e *Engine) Wait() {
	e.runtime.Wait()
}
