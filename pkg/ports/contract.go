package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		history := domain.NewHistory(sessionID, domain.StepRetrieve)
		history.Entries = append(history.Entries, domain.Slots{
			domain.SlotStep:         string(domain.StepSelect),
			domain.SlotContactEmail: "pec@impresa.it",
			domain.SlotSelectedBusiness: map[string]any{
				"businessTaxId": "01113570442",
				"businessName":  "BusinessName success",
				"certified":     true,
			},
		})
		history.Cursor = 1

		err := store.Save(ctx, sessionID, history)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Entries, 2)
		assert.Equal(t, 1, loaded.Cursor)
		assert.Equal(t, string(domain.StepSelect), loaded.Current()[domain.SlotStep])
		assert.Equal(t, "pec@impresa.it", loaded.Current()[domain.SlotContactEmail])

		selected, ok := loaded.Current()[domain.SlotSelectedBusiness].(map[string]any)
		require.True(t, ok, "nested slot values must stay JSON-shaped")
		assert.Equal(t, "01113570442", selected["businessTaxId"])
		assert.Equal(t, true, selected["certified"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewHistory(sessionID, domain.StepRetrieve))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewHistory(id1, domain.StepRetrieve))
		_ = store.Save(ctx, id2, domain.NewHistory(id2, domain.StepRetrieve))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunOutcomeLedgerContract verifies that an OutcomeLedger implementation
// remembers outcomes per submission key.
func RunOutcomeLedgerContract(t *testing.T, ledger OutcomeLedger) {
	ctx := context.Background()
	key := domain.SubmissionKey("01113570442", domain.DefaultProductID)

	t.Run("Lookup Missing", func(t *testing.T) {
		_, ok, err := ledger.Lookup(ctx, domain.SubmissionKey("00000000000", "prod-none"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Record and Lookup", func(t *testing.T) {
		require.NoError(t, ledger.Record(ctx, key, domain.SubmissionAccepted))

		outcome, ok, err := ledger.Lookup(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.SubmissionAccepted, outcome)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, ledger.Record(ctx, key, domain.SubmissionAlreadyOnboarded))

		outcome, ok, err := ledger.Lookup(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.SubmissionAlreadyOnboarded, outcome)
	})

	t.Run("Keys Are Independent", func(t *testing.T) {
		other := domain.SubmissionKey("01113570442", "prod-other")
		_, ok, err := ledger.Lookup(ctx, other)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
