package history_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/history"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PendingIsScoped(t *testing.T) {
	s := history.Start("s1", domain.StepSelect)

	require.NoError(t, s.Set(domain.SlotContactEmail, "pec@acme.it"))

	_, ok := s.Get(domain.SlotContactEmail)
	assert.False(t, ok, "uncommitted writes are invisible to committed reads")

	v, ok := s.Scope().Get(domain.SlotContactEmail)
	assert.True(t, ok)
	assert.Equal(t, "pec@acme.it", v)

	require.NoError(t, s.Set(domain.SlotContactEmail, "pec2@acme.it"))
	v, _ = s.Scope().Get(domain.SlotContactEmail)
	assert.Equal(t, "pec2@acme.it", v, "a step can rewrite its working value")

	diff := s.Commit()
	assert.Equal(t, []string{domain.SlotContactEmail}, diff.Keys())
	v, ok = s.Get(domain.SlotContactEmail)
	assert.True(t, ok)
	assert.Equal(t, "pec2@acme.it", v)
	assert.False(t, s.HasPending())
}

func TestStore_NilClearsOnCommit(t *testing.T) {
	s := history.Start("s1", domain.StepSubmit)
	require.NoError(t, s.Set(domain.SlotLastError, domain.KindGenericFailure))
	s.Commit()

	require.NoError(t, s.Set(domain.SlotLastError, nil))
	_, ok := s.Scope().Get(domain.SlotLastError)
	assert.False(t, ok)

	diff := s.Commit()
	assert.Equal(t, []string{domain.SlotLastError}, diff.Removed)
	_, ok = s.Get(domain.SlotLastError)
	assert.False(t, ok)
}

func TestStore_BusinessRoundTripAcrossNavigation(t *testing.T) {
	selected := domain.Business{
		BusinessTaxID: "01113570442",
		BusinessName:  "BusinessName success",
		Certified:     true,
		Metadata:      map[string]string{"source": "infocamere"},
	}

	s := history.Start("s1", domain.StepSelect)
	require.NoError(t, s.Set(domain.SlotSelectedBusiness, selected))
	require.NoError(t, s.Set(domain.SlotStep, domain.StepVerifyAddress))
	s.Commit()
	require.NoError(t, s.Set(domain.SlotStep, domain.StepSubmit))
	s.Commit()

	require.NoError(t, s.Back())
	require.NoError(t, s.Forward())

	var got domain.Business
	ok, err := s.Decode(domain.SlotSelectedBusiness, &got)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(selected, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_PersistedRoundTrip(t *testing.T) {
	created := time.Date(2024, 10, 15, 3, 24, 0, 0, time.UTC)
	eligible := false
	status := []domain.OnboardingStatus{{
		InstitutionID: "party",
		Onboardings:   []domain.OnboardingRecord{{Billing: "b", CreatedAt: created, ProductID: "p", Status: domain.RecordActive}},
	}}
	outcomes := map[string]domain.SubmissionOutcome{"k": domain.SubmissionAccepted}

	s := history.Start("s1", domain.StepConfirm)
	require.NoError(t, s.Set(domain.SlotOnboarding, status))
	require.NoError(t, s.Set(domain.SlotOutcomes, outcomes))
	require.NoError(t, s.Set(domain.SlotManagerEligible, eligible))
	s.Commit()

	raw, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	var h domain.History
	require.NoError(t, json.Unmarshal(raw, &h))
	reloaded := history.New(&h)

	var gotStatus []domain.OnboardingStatus
	_, err = reloaded.Decode(domain.SlotOnboarding, &gotStatus)
	require.NoError(t, err)
	if diff := cmp.Diff(status, gotStatus); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	var gotOutcomes map[string]domain.SubmissionOutcome
	_, err = reloaded.Decode(domain.SlotOutcomes, &gotOutcomes)
	require.NoError(t, err)
	assert.Equal(t, outcomes, gotOutcomes)

	var gotEligible *bool
	_, err = reloaded.Decode(domain.SlotManagerEligible, &gotEligible)
	require.NoError(t, err)
	require.NotNil(t, gotEligible)
	assert.False(t, *gotEligible)
}

func TestStore_Navigation(t *testing.T) {
	s := history.Start("s1", domain.StepRetrieve)
	assert.False(t, s.CanBack())
	assert.ErrorIs(t, s.Back(), domain.ErrNoHistory)
	assert.ErrorIs(t, s.Forward(), domain.ErrNoHistory)

	require.NoError(t, s.Set(domain.SlotStep, domain.StepSelect))
	s.Commit()
	require.NoError(t, s.Set(domain.SlotStep, domain.StepVerifyAddress))
	s.Commit()

	epoch := s.Epoch()
	require.NoError(t, s.Set(domain.SlotContactEmail, "draft@acme.it"))
	require.NoError(t, s.Back())
	assert.Equal(t, epoch+1, s.Epoch())
	assert.False(t, s.HasPending(), "navigation discards pending writes")
	assert.True(t, s.CanForward())

	step, _ := s.Get(domain.SlotStep)
	assert.Equal(t, string(domain.StepSelect), step)

	require.NoError(t, s.Forward())
	step, _ = s.Get(domain.SlotStep)
	assert.Equal(t, string(domain.StepVerifyAddress), step)
	assert.False(t, s.CanForward())
}

func TestStore_CommitTruncatesForward(t *testing.T) {
	s := history.Start("s1", domain.StepRetrieve)
	require.NoError(t, s.Set(domain.SlotStep, domain.StepSelect))
	s.Commit()
	require.NoError(t, s.Set(domain.SlotStep, domain.StepVerifyAddress))
	s.Commit()

	require.NoError(t, s.Back())
	require.NoError(t, s.Set(domain.SlotStep, domain.StepNoMatch))
	s.Commit()

	assert.False(t, s.CanForward())
	assert.Len(t, s.Snapshot().Entries, 3)
}

func TestStore_InvalidateAndDirty(t *testing.T) {
	h := domain.NewHistory("s1", domain.StepRetrieve)
	s := history.New(h)
	assert.False(t, s.Dirty())

	require.NoError(t, s.Set(domain.SlotContactEmail, "x"))
	assert.False(t, s.Dirty(), "pending writes are not durable changes")

	rev := s.Revision()
	s.Invalidate()
	assert.True(t, s.Dirty())
	assert.False(t, s.HasPending())
	assert.Equal(t, uint64(1), s.Epoch())
	assert.Equal(t, rev+1, s.Revision())

	s.MarkClean()
	assert.False(t, s.Dirty())
}

func TestStore_SetRejectsUnencodable(t *testing.T) {
	s := history.Start("s1", domain.StepSelect)
	assert.Error(t, s.Set("bad", make(chan int)))
}

func TestStore_NewCopiesInput(t *testing.T) {
	h := domain.NewHistory("s1", domain.StepRetrieve)
	s := history.New(h)
	require.NoError(t, s.Set(domain.SlotStep, domain.StepSelect))
	s.Commit()
	assert.Len(t, h.Entries, 1)
}

func TestSeed_FirstEntry(t *testing.T) {
	s, err := history.Seed("s1", domain.Slots{
		domain.SlotStep:          string(domain.StepCheckManager),
		domain.SlotManualTaxCode: "12323231321",
		domain.SlotLastError:     nil,
	})
	require.NoError(t, err)

	assert.True(t, s.Dirty())
	assert.False(t, s.CanBack())
	h := s.Snapshot()
	require.Len(t, h.Entries, 1)
	assert.Equal(t, domain.Slots{"step": "check_manager", "manual_tax_code": "12323231321"}, h.Entries[0])

	_, err = history.Seed("s1", domain.Slots{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestDecodeEntries_IncludesForwardEntries(t *testing.T) {
	s := history.Start("s1", domain.StepSubmit)
	key := domain.SubmissionKey("01113570442", domain.DefaultProductID)

	require.NoError(t, s.Set(domain.SlotStep, domain.StepDone))
	require.NoError(t, s.Set(domain.SlotOutcomes, map[string]domain.SubmissionOutcome{key: domain.SubmissionAccepted}))
	s.Commit()
	require.NoError(t, s.Back())

	_, ok := s.Get(domain.SlotOutcomes)
	assert.False(t, ok, "the cursor entry has no outcome")

	got, err := history.DecodeEntries[map[string]domain.SubmissionOutcome](s, domain.SlotOutcomes)
	require.NoError(t, err)
	want := []map[string]domain.SubmissionOutcome{{key: domain.SubmissionAccepted}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeEntries mismatch (-want +got):\n%s", diff)
	}

	none, err := history.DecodeEntries[string](s, domain.SlotContactEmail)
	require.NoError(t, err)
	assert.Empty(t, none)
}
