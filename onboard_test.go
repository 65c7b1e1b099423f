package onboard_test

import (
	"context"
	"testing"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/adapters/file"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/adapters/mockbackend"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresBackend(t *testing.T) {
	_, err := onboard.New(nil)
	assert.Error(t, err)
}

func TestFacade_ResumeAfterRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ledger := memory.NewLedger()
	user := mockbackend.LoggedUser

	first, err := onboard.New(mockbackend.New(), onboard.WithStore(file.New(dir)), onboard.WithLedger(ledger))
	require.NoError(t, err)
	t.Cleanup(first.Wait)

	_, err = first.Start(ctx, "s1", user)
	require.NoError(t, err)
	_, err = first.DraftContactEmail(ctx, "s1", "pec@acme.it")
	require.NoError(t, err)
	done, err := first.Select(ctx, "s1", user, mockbackend.TaxCodeAlreadyOnboarded)
	require.NoError(t, err)
	require.Equal(t, domain.StepAlreadyOnboarded, done.Step)

	// A new process over the same directory.
	second, err := onboard.New(mockbackend.New(), onboard.WithStore(file.New(dir)), onboard.WithLedger(ledger))
	require.NoError(t, err)
	t.Cleanup(second.Wait)

	view, err := second.Resume(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, done, view)

	ids, err := second.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	h, err := second.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, h.Entries, 5)
	assert.Equal(t, domain.DefaultProductID, second.ProductID())
}

func TestFacade_Hooks(t *testing.T) {
	ctx := context.Background()
	var steps []domain.Step
	engine, err := onboard.New(mockbackend.New(),
		onboard.WithStatusRefetch(false),
		onboard.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepEnter: func(_ context.Context, e *domain.StepEvent) { steps = append(steps, e.Step) },
		}),
	)
	require.NoError(t, err)

	user := mockbackend.LoggedUser
	_, err = engine.Start(ctx, "s1", user)
	require.NoError(t, err)
	_, err = engine.DraftContactEmail(ctx, "s1", "pec@acme.it")
	require.NoError(t, err)
	_, err = engine.Select(ctx, "s1", user, mockbackend.TaxCodeSuccess)
	require.NoError(t, err)

	assert.Equal(t, []domain.Step{
		domain.StepRetrieve, domain.StepSelect, domain.StepVerifyAddress, domain.StepSubmit, domain.StepDone,
	}, steps)
}
