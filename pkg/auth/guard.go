// Package auth injects the bearer credential into backend calls and turns
// rejected credentials into an asynchronous session-invalidation notice.
package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

// Default texts of the session-expired notice.
const (
	DefaultTitle       = "Session expired"
	DefaultDescription = "Your session is no longer valid. Sign in again to continue."
)

// Guard reads the credential before every call and notifies the session
// notifier, without blocking the caller, whenever a call is Unauthorized.
// A nil Guard enforces nothing.
type Guard struct {
	tokens   ports.TokenSource
	notifier ports.SessionNotifier
	logger   *slog.Logger

	title       string
	description string

	wg sync.WaitGroup
}

// Option configures the Guard.
type Option func(*Guard)

// WithLogger configures a logger for the Guard.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithNoticeText overrides the displayable texts of the session-expired notice.
func WithNoticeText(title, description string) Option {
	return func(g *Guard) {
		g.title = title
		g.description = description
	}
}

// NewGuard creates a Guard. The notifier may be nil.
func NewGuard(tokens ports.TokenSource, notifier ports.SessionNotifier, opts ...Option) *Guard {
	g := &Guard{
		tokens:      tokens,
		notifier:    notifier,
		logger:      logging.NewNop(),
		title:       DefaultTitle,
		description: DefaultDescription,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Bearer returns the current credential for op.
// A missing credential is Unauthorized and triggers the notice.
func (g *Guard) Bearer(ctx context.Context, op string) (string, error) {
	if g == nil {
		return "", nil
	}
	if g.tokens != nil {
		if token, ok := g.tokens.Token(ctx); ok && token != "" {
			return token, nil
		}
	}
	err := &domain.Error{Kind: domain.KindUnauthorized, Op: op, Description: "missing bearer credential"}
	g.reject(ctx, err)
	return "", err
}

// Check inspects a classified error and triggers the notice when it is
// Unauthorized. The error is returned unchanged.
func (g *Guard) Check(ctx context.Context, err error) error {
	if g == nil || err == nil {
		return err
	}
	if domain.KindOf(err) == domain.KindUnauthorized {
		g.reject(ctx, err)
	}
	return err
}

// Wait blocks until every pending notification has been delivered.
func (g *Guard) Wait() {
	if g == nil {
		return
	}
	g.wg.Wait()
}

func (g *Guard) reject(ctx context.Context, cause error) {
	g.logger.Warn("Bearer credential rejected", "err", cause)
	if g.notifier == nil {
		return
	}
	notice := domain.Notice{
		ID:                     domain.NoticeTokenNotValid,
		Error:                  cause,
		TechDescription:        "token expired or not valid",
		DisplayableTitle:       g.title,
		DisplayableDescription: g.description,
	}
	// The notification outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.notifier.Notify(ctx, notice)
	}()
}
