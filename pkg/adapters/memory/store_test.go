package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryLedger_Contract(t *testing.T) {
	ports.RunOutcomeLedgerContract(t, memory.NewLedger())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	h := domain.NewHistory("iso", domain.StepRetrieve)
	require.NoError(t, store.Save(ctx, "iso", h))
	h.Entries[0][domain.SlotStep] = "mutated"

	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StepRetrieve), loaded.Current()[domain.SlotStep])

	loaded.Entries[0][domain.SlotStep] = "mutated"
	again, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StepRetrieve), again.Current()[domain.SlotStep])
}

func TestDiscardLedger(t *testing.T) {
	var ledger memory.DiscardLedger
	require.NoError(t, ledger.Record(context.Background(), "k", domain.SubmissionAccepted))
	_, ok, err := ledger.Lookup(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
