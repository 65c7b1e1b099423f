package memory

import (
	"context"
	"sync"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

var _ ports.OutcomeLedger = (*Ledger)(nil)

// Ledger implements ports.OutcomeLedger in memory.
// Outcomes survive session restarts but not process restarts.
type Ledger struct {
	data map[string]domain.SubmissionOutcome
	mu   sync.RWMutex
}

// NewLedger creates a new in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{data: make(map[string]domain.SubmissionOutcome)}
}

// Record stores the outcome of a submission key.
func (l *Ledger) Record(ctx context.Context, key string, outcome domain.SubmissionOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = outcome
	return nil
}

// Lookup returns the recorded outcome of a submission key.
func (l *Ledger) Lookup(ctx context.Context, key string) (domain.SubmissionOutcome, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	outcome, ok := l.data[key]
	return outcome, ok, nil
}

// DiscardLedger records nothing. The engine still reads settled outcomes
// from the session history, so only other sessions may submit again.
type DiscardLedger struct{}

// Record implements ports.OutcomeLedger.
func (DiscardLedger) Record(context.Context, string, domain.SubmissionOutcome) error { return nil }

// Lookup implements ports.OutcomeLedger.
func (DiscardLedger) Lookup(context.Context, string) (domain.SubmissionOutcome, bool, error) {
	return "", false, nil
}
