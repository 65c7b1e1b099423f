package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// SessionStore defines the interface for persisting committed session history.
// This allows a workflow to survive navigation, reloads and process restarts.
type SessionStore interface {
	// Save persists the history for a given session ID.
	Save(ctx context.Context, sessionID string, history *domain.History) error

	// Load retrieves the history for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.History, error)

	// Delete removes the history for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}

// OutcomeLedger records terminal submission outcomes per (taxCode, productId)
// beyond the lifetime of a single session, so a full reload cannot re-submit.
type OutcomeLedger interface {
	// Record stores the outcome for the submission key.
	Record(ctx context.Context, key string, outcome domain.SubmissionOutcome) error

	// Lookup returns the recorded outcome, or false if none was recorded.
	Lookup(ctx context.Context, key string) (domain.SubmissionOutcome, bool, error)
}
