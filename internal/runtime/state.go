package runtime

import (
	"fmt"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/history"
)

// slotReader is satisfied by both the committed store and its pending-first scope.
type slotReader interface {
	Decode(slot string, out any) (bool, error)
}

// readState decodes the engine's working memory from the history slots.
func readState(r slotReader) (domain.StepState, error) {
	var s domain.StepState

	var step string
	ok, err := r.Decode(domain.SlotStep, &step)
	if err != nil {
		return s, err
	}
	if !ok || step == "" {
		return s, fmt.Errorf("session history has no step")
	}
	s.Step = domain.Step(step)

	var entity domain.LegalEntity
	if ok, err := r.Decode(domain.SlotLegalEntity, &entity); err != nil {
		return s, err
	} else if ok {
		s.LegalEntity = &entity
	}

	var selected domain.Business
	if ok, err := r.Decode(domain.SlotSelectedBusiness, &selected); err != nil {
		return s, err
	} else if ok {
		s.SelectedBusiness = &selected
	}

	var address domain.LegalAddress
	if ok, err := r.Decode(domain.SlotLegalAddress, &address); err != nil {
		return s, err
	} else if ok {
		s.LegalAddress = &address
	}

	var eligible bool
	if ok, err := r.Decode(domain.SlotManagerEligible, &eligible); err != nil {
		return s, err
	} else if ok {
		s.ManagerEligible = &eligible
	}

	var lastErr string
	if _, err := r.Decode(domain.SlotLastError, &lastErr); err != nil {
		return s, err
	}
	s.LastError = domain.ErrorKind(lastErr)

	if _, err := r.Decode(domain.SlotContactEmail, &s.ContactEmail); err != nil {
		return s, err
	}
	if _, err := r.Decode(domain.SlotManualTaxCode, &s.ManualTaxCode); err != nil {
		return s, err
	}
	if _, err := r.Decode(domain.SlotOutcomes, &s.Outcomes); err != nil {
		return s, err
	}
	if _, err := r.Decode(domain.SlotOnboarding, &s.Onboarding); err != nil {
		return s, err
	}
	return s, nil
}

func buildView(st *history.Store) (*domain.View, error) {
	state, err := readState(st.Scope())
	if err != nil {
		return nil, err
	}

	v := &domain.View{
		SessionID:  st.SessionID(),
		Step:       state.Step,
		Terminal:   state.Step.Terminal(),
		Selected:   state.SelectedBusiness,
		Email:      state.ContactEmail,
		Address:    state.LegalAddress,
		LastError:  state.LastError,
		CanBack:    st.CanBack(),
		CanForward: st.CanForward(),
	}
	if state.LegalEntity != nil {
		v.Candidates = state.LegalEntity.Businesses
	}
	if len(state.Onboarding) > 0 {
		v.Onboarding = &state.Onboarding[0]
	}
	return v, nil
}

// settledOutcomes merges the submission outcomes recorded anywhere in the
// session history with the pending ones. A terminal outcome is never
// replaced by a non-terminal one, so a settled submission stays settled
// after Back lands on an entry older than the one that recorded it.
func settledOutcomes(st *history.Store) (map[string]domain.SubmissionOutcome, error) {
	recorded, err := history.DecodeEntries[map[string]domain.SubmissionOutcome](st, domain.SlotOutcomes)
	if err != nil {
		return nil, err
	}
	var pending map[string]domain.SubmissionOutcome
	if _, err := st.Scope().Decode(domain.SlotOutcomes, &pending); err != nil {
		return nil, err
	}
	recorded = append(recorded, pending)

	merged := make(map[string]domain.SubmissionOutcome)
	for _, outcomes := range recorded {
		for key, o := range outcomes {
			if prior, ok := merged[key]; ok && prior.Terminal() && !o.Terminal() {
				continue
			}
			merged[key] = o
		}
	}
	return merged, nil
}
