package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/history"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Engine drives the onboarding state machine of every session it is handed.
// Workflow state lives exclusively in the session history; the engine keeps
// no per-session copy between calls.
type Engine struct {
	backend  ports.Backend
	sessions *session.Manager

	ledger      ports.OutcomeLedger
	analytics   ports.AnalyticsEmitter
	diagnostics ports.DiagnosticsReporter
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	productID     string
	refetchStatus bool
	requestID     func() string

	submits singleflight.Group

	mu       sync.Mutex
	inflight map[string]struct{}

	async sync.WaitGroup
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLedger records terminal submission outcomes beyond the session.
// Without one the engine keeps them in process memory.
func WithLedger(ledger ports.OutcomeLedger) EngineOption {
	return func(e *Engine) {
		if ledger != nil {
			e.ledger = ledger
		}
	}
}

// WithAnalytics sets the analytics collaborator.
func WithAnalytics(a ports.AnalyticsEmitter) EngineOption {
	return func(e *Engine) {
		e.analytics = a
	}
}

// WithDiagnostics sets the collaborator notified of reportable failures.
func WithDiagnostics(d ports.DiagnosticsReporter) EngineOption {
	return func(e *Engine) {
		e.diagnostics = d
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProductID sets the product the businesses are onboarded on.
func WithProductID(id string) EngineOption {
	return func(e *Engine) {
		if id != "" {
			e.productID = id
		}
	}
}

// WithStatusRefetch enables the CONFIRM step, which queries the onboarding
// status after an accepted submission. When disabled SUBMIT goes straight to DONE.
func WithStatusRefetch(enabled bool) EngineOption {
	return func(e *Engine) {
		e.refetchStatus = enabled
	}
}

// WithRequestIDs overrides the generator of analytics request ids.
func WithRequestIDs(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.requestID = fn
		}
	}
}

// NewEngine creates an engine over a backend and the session manager.
func NewEngine(backend ports.Backend, sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		backend:       backend,
		sessions:      sessions,
		ledger:        memory.NewLedger(),
		logger:        logging.NewNop(),
		productID:     domain.DefaultProductID,
		refetchStatus: true,
		requestID:     uuid.NewString,
		inflight:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProductID returns the product the engine onboards businesses on.
func (e *Engine) ProductID() string {
	return e.productID
}

// Start opens a fresh workflow at RETRIEVE and runs it until it needs input
// or reaches a terminal step. Any previous history of the session is replaced.
func (e *Engine) Start(ctx context.Context, sessionID string, user domain.User) (*domain.View, error) {
	done, err := e.begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer done()

	err = e.sessions.Start(ctx, sessionID, domain.StepRetrieve, func(ctx context.Context, st *history.Store) error {
		e.emitStepEnter(ctx, sessionID, domain.StepRetrieve)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return e.advance(ctx, sessionID, user)
}

// StartManual opens a workflow for a business the user typed in. The manager
// check runs first and falls back to the registry match.
func (e *Engine) StartManual(ctx context.Context, sessionID string, user domain.User, business domain.Business) (*domain.View, error) {
	business.BusinessTaxID = strings.TrimSpace(business.BusinessTaxID)
	if business.BusinessTaxID == "" {
		return nil, fmt.Errorf("%w: business tax code is required", domain.ErrUnknownBusiness)
	}

	done, err := e.begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer done()

	first := domain.Slots{
		domain.SlotStep: string(domain.StepCheckManager),
		domain.SlotLegalEntity: domain.LegalEntity{
			Businesses: []domain.Business{business},
			LegalTaxID: user.TaxCode,
		},
		domain.SlotManualTaxCode: business.BusinessTaxID,
	}
	err = e.sessions.StartWith(ctx, sessionID, first, func(ctx context.Context, st *history.Store) error {
		e.emitStepEnter(ctx, sessionID, domain.StepCheckManager)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return e.advance(ctx, sessionID, user)
}

// DraftContactEmail records the contact address typed during SELECT.
// The value stays uncommitted until Select.
func (e *Engine) DraftContactEmail(ctx context.Context, sessionID, email string) (*domain.View, error) {
	var view *domain.View
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, st *history.Store) error {
		state, err := readState(st.Scope())
		if err != nil {
			return err
		}
		if state.Step != domain.StepSelect {
			return fmt.Errorf("%w: contact email belongs to %s, session is at %s", domain.ErrWrongStep, domain.StepSelect, state.Step)
		}
		if err := st.Set(domain.SlotContactEmail, strings.TrimSpace(email)); err != nil {
			return err
		}
		view, err = buildView(st)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Select commits the chosen business together with the drafted contact email
// and runs the rest of the workflow.
func (e *Engine) Select(ctx context.Context, sessionID string, user domain.User, taxCode string) (*domain.View, error) {
	done, err := e.begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer done()

	err = e.sessions.Update(ctx, sessionID, func(ctx context.Context, st *history.Store) error {
		state, err := readState(st.Scope())
		if err != nil {
			return err
		}
		if state.Step != domain.StepSelect {
			return fmt.Errorf("%w: cannot select a business at %s", domain.ErrWrongStep, state.Step)
		}
		business, ok := state.LegalEntity.Find(strings.TrimSpace(taxCode))
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownBusiness, taxCode)
		}
		if state.ContactEmail == "" {
			return domain.ErrContactRequired
		}
		if err := st.Set(domain.SlotSelectedBusiness, business); err != nil {
			return err
		}
		return e.transition(ctx, st, domain.StepSelect, domain.StepVerifyAddress, nil)
	})
	if err != nil {
		return nil, err
	}
	return e.advance(ctx, sessionID, user)
}

// Advance re-enters the current step. Steps that call the backend run again
// (SUBMIT short-circuits on a recorded outcome); input and terminal steps
// only return the view.
func (e *Engine) Advance(ctx context.Context, sessionID string, user domain.User) (*domain.View, error) {
	done, err := e.begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer done()
	return e.advance(ctx, sessionID, user)
}

// Resume renders the committed state without contacting the backend.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.navigate(ctx, sessionID, func(*history.Store) error { return nil })
}

// Back moves to the previous history entry. Any in-flight response is discarded.
func (e *Engine) Back(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.navigate(ctx, sessionID, (*history.Store).Back)
}

// Forward moves to the next history entry. Any in-flight response is discarded.
func (e *Engine) Forward(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.navigate(ctx, sessionID, (*history.Store).Forward)
}

// Cancel abandons the current step: pending writes are dropped and any
// in-flight response is discarded.
func (e *Engine) Cancel(ctx context.Context, sessionID string) (*domain.View, error) {
	return e.navigate(ctx, sessionID, func(st *history.Store) error {
		st.Invalidate()
		return nil
	})
}

// Delete removes the session history.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Wait blocks until pending analytics and diagnostics deliveries finish.
func (e *Engine) Wait() {
	e.async.Wait()
}

func (e *Engine) navigate(ctx context.Context, sessionID string, move func(*history.Store) error) (*domain.View, error) {
	var view *domain.View
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, st *history.Store) error {
		if err := move(st); err != nil {
			return err
		}
		var err error
		view, err = buildView(st)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// begin marks a backend-driving operation in flight for the session.
func (e *Engine) begin(sessionID string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[sessionID]; busy {
		return nil, domain.ErrCallInFlight
	}
	e.inflight[sessionID] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.inflight, sessionID)
		e.mu.Unlock()
	}, nil
}

// advance runs backend steps until the workflow needs input or terminates.
// The session lock is held only while reading and applying; the call itself
// runs unlocked so navigation can interleave and invalidate it.
func (e *Engine) advance(ctx context.Context, sessionID string, user domain.User) (*domain.View, error) {
	for {
		var (
			p    *plan
			view *domain.View
		)
		err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, st *history.Store) error {
			state, err := readState(st.Scope())
			if err != nil {
				return err
			}
			if state.Step.Terminal() || state.Step.AwaitsInput() {
				view, err = buildView(st)
				return err
			}
			if state.Outcomes, err = settledOutcomes(st); err != nil {
				return err
			}
			p = &plan{sessionID: sessionID, epoch: st.Epoch(), state: state, user: user}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if p == nil {
			return view, nil
		}

		res := e.execute(ctx, p)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStale, err)
		}

		err = e.sessions.Update(ctx, sessionID, func(ctx context.Context, st *history.Store) error {
			state, err := readState(st.Scope())
			if err != nil {
				return err
			}
			if st.Epoch() != p.epoch || state.Step != p.state.Step {
				e.logger.Debug("discarding stale response",
					"session_id", sessionID,
					"step", p.state.Step,
					"current", state.Step,
				)
				return domain.ErrStale
			}
			return e.apply(ctx, st, p.state.Step, res)
		})
		if err != nil {
			return nil, err
		}
	}
}

// transition commits the pending writes as a new entry positioned at next.
// Terminal steps record last_error; DONE and NO_MATCH clear it.
func (e *Engine) transition(ctx context.Context, st *history.Store, from, to domain.Step, lastErr *domain.ErrorKind) error {
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	if err := st.Set(domain.SlotStep, string(to)); err != nil {
		return err
	}
	// Commit truncates forward entries; settled outcomes must survive it.
	outcomes, err := settledOutcomes(st)
	if err != nil {
		return err
	}
	if len(outcomes) > 0 {
		if err := st.Set(domain.SlotOutcomes, outcomes); err != nil {
			return err
		}
	}
	switch {
	case lastErr != nil:
		if err := st.Set(domain.SlotLastError, string(*lastErr)); err != nil {
			return err
		}
	case to == domain.StepDone || to == domain.StepNoMatch:
		if err := st.Set(domain.SlotLastError, nil); err != nil {
			return err
		}
	}
	diff := st.Commit()

	e.logger.Debug("step transition",
		"session_id", st.SessionID(),
		"from", from,
		"to", to,
		"changed", diff.Keys(),
	)
	e.emitStepLeave(ctx, st.SessionID(), from)
	e.emitStepEnter(ctx, st.SessionID(), to)
	return nil
}
