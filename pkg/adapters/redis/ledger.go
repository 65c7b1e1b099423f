package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

var _ ports.OutcomeLedger = (*Ledger)(nil)

// Ledger implements ports.OutcomeLedger as a Redis hash keyed by submission key.
type Ledger struct {
	client *backend.Client
	key    string
}

// NewLedger creates a ledger stored under prefix + "outcomes".
func NewLedger(client *backend.Client, prefix string) *Ledger {
	return &Ledger{client: client, key: prefix + "outcomes"}
}

// Record stores the outcome of a submission key.
func (l *Ledger) Record(ctx context.Context, key string, outcome domain.SubmissionOutcome) error {
	if err := l.client.HSet(ctx, l.key, key, string(outcome)).Err(); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Lookup returns the recorded outcome of a submission key.
func (l *Ledger) Lookup(ctx context.Context, key string) (domain.SubmissionOutcome, bool, error) {
	val, err := l.client.HGet(ctx, l.key, key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to lookup outcome: %w", err)
	}
	return domain.SubmissionOutcome(val), true, nil
}
