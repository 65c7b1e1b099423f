// Package mockbackend is a deterministic, input-keyed stand-in for the
// onboarding backend.
//
// Failures are produced as an HTTP status plus a problem body and run through
// the same classification table as the live gateway.
package mockbackend

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/auth"
	"github.com/aretw0/onboard/pkg/classify"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

var _ ports.Backend = (*Backend)(nil)

// Backend implements ports.Backend with fixtures.
type Backend struct {
	guard   *auth.Guard
	logger  *slog.Logger
	latency time.Duration
}

// Option configures the mock backend.
type Option func(*Backend)

// WithGuard makes every call require a bearer credential.
func WithGuard(guard *auth.Guard) Option {
	return func(b *Backend) {
		b.guard = guard
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithLatency delays every call, honoring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		b.latency = d
	}
}

// New creates a mock backend.
func New(opts ...Option) *Backend {
	b := &Backend{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RetrieveEligibleBusinesses always returns the fixed catalog.
func (b *Backend) RetrieveEligibleBusinesses(ctx context.Context, user domain.User) (*domain.LegalEntity, error) {
	if err := b.enter(ctx, classify.OpRetrieve); err != nil {
		return nil, err
	}
	return Catalog(), nil
}

// VerifyLegalAddress returns the fixture address of taxCode, if any.
func (b *Backend) VerifyLegalAddress(ctx context.Context, taxCode string) (*domain.LegalAddress, error) {
	if err := b.enter(ctx, classify.OpVerifyAddress); err != nil {
		return nil, err
	}
	if taxCode == TaxCodeInvalidFormat {
		return nil, b.fail(classify.OpVerifyAddress, http.StatusBadRequest, "Bad request")
	}
	addr, ok := legalAddresses[taxCode]
	if !ok {
		return nil, nil
	}
	return &addr, nil
}

// MatchUserToBusiness reports whether taxCode is in the registry sample.
func (b *Backend) MatchUserToBusiness(ctx context.Context, taxCode string, user domain.User) (*domain.MatchResult, error) {
	if err := b.enter(ctx, classify.OpMatch); err != nil {
		return nil, err
	}
	_, found := registry[taxCode]
	return &domain.MatchResult{VerificationResult: found}, nil
}

// SubmitOnboarding accepts every submission but the sentinels.
func (b *Backend) SubmitOnboarding(ctx context.Context, sub domain.Submission) (domain.SubmissionOutcome, error) {
	if err := b.enter(ctx, classify.OpSubmit); err != nil {
		return classify.Submission(err), err
	}

	var err error
	switch sub.TaxCode {
	case TaxCodeGenericError:
		err = b.fail(classify.OpSubmit, http.StatusNotFound, "Not found")
	case TaxCodeAlreadyOnboarded:
		err = b.fail(classify.OpSubmit, http.StatusConflict, "Conflict")
	}

	outcome := classify.Submission(err)
	if outcome == domain.SubmissionAlreadyOnboarded {
		return outcome, nil
	}
	return outcome, err
}

// QueryOnboardingStatus returns one active record for the active sentinels.
func (b *Backend) QueryOnboardingStatus(ctx context.Context, taxCode, productID string) ([]domain.OnboardingStatus, error) {
	if err := b.enter(ctx, classify.OpStatus); err != nil {
		return nil, err
	}
	if !activeSentinels[taxCode] {
		return nil, b.fail(classify.OpStatus, http.StatusNotFound, "Not Found")
	}
	return []domain.OnboardingStatus{ActiveStatus()}, nil
}

// CheckManagerEligibility looks the user's business up in a fixed table.
func (b *Backend) CheckManagerEligibility(ctx context.Context, user domain.User, taxCode string) (bool, error) {
	if err := b.enter(ctx, classify.OpCheckManager); err != nil {
		return false, err
	}
	return managers[taxCode], nil
}

func (b *Backend) enter(ctx context.Context, op string) error {
	if _, err := b.guard.Bearer(ctx, op); err != nil {
		return err
	}
	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return classify.Transport(op, ctx.Err())
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return classify.Transport(op, err)
	}
	return nil
}

func (b *Backend) fail(op string, status int, description string) error {
	err := classify.Failure(op, status, classify.ProblemBody(status, description))
	b.logger.Debug("Mocked backend failure", "op", op, "status", status, "err", err)
	return err
}
