package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/onboard/pkg/classify"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/history"
	"golang.org/x/sync/singleflight"
)

// plan is what a step needs to run its backend call outside the session lock.
type plan struct {
	sessionID string
	epoch     uint64
	state     domain.StepState
	user      domain.User
}

// result is the decided transition of a resolved call.
type result struct {
	next    domain.Step
	slots   domain.Slots // nil values clear the slot
	lastErr *domain.ErrorKind
}

// submitResult is shared between collapsed duplicate submits.
type submitResult struct {
	outcome domain.SubmissionOutcome
	err     error
	called  bool
}

func (e *Engine) execute(ctx context.Context, p *plan) result {
	switch p.state.Step {
	case domain.StepRetrieve:
		return e.retrieve(ctx, p)
	case domain.StepCheckManager:
		return e.checkManager(ctx, p)
	case domain.StepMatch:
		return e.match(ctx, p)
	case domain.StepVerifyAddress:
		return e.verifyAddress(ctx, p)
	case domain.StepSubmit:
		return e.submit(ctx, p)
	case domain.StepConfirm:
		return e.confirm(ctx, p)
	}
	e.logger.Error("no handler for step", "session_id", p.sessionID, "step", p.state.Step)
	return failed(fmt.Errorf("unknown step %q", p.state.Step))
}

func (e *Engine) apply(ctx context.Context, st *history.Store, from domain.Step, res result) error {
	for slot, v := range res.slots {
		if err := st.Set(slot, v); err != nil {
			return err
		}
	}
	return e.transition(ctx, st, from, res.next, res.lastErr)
}

func (e *Engine) retrieve(ctx context.Context, p *plan) result {
	var entity *domain.LegalEntity
	err := e.call(ctx, p, classify.OpRetrieve, func(ctx context.Context) error {
		var err error
		entity, err = e.backend.RetrieveEligibleBusinesses(ctx, p.user)
		return err
	})
	if err != nil {
		e.track(ctx, domain.EventRetrieveGenericError)
		e.report(ctx, domain.NoticeRetrieveError, err, "An error occurred while retrieving businesses by user")
		return failed(err)
	}

	e.track(ctx, domain.EventRetrieved)
	if entity == nil || len(entity.Businesses) == 0 {
		return result{next: domain.StepNoMatch}
	}
	return result{
		next:  domain.StepSelect,
		slots: domain.Slots{domain.SlotLegalEntity: entity},
	}
}

func (e *Engine) checkManager(ctx context.Context, p *plan) result {
	taxCode := p.manualTaxCode()
	var eligible bool
	err := e.call(ctx, p, classify.OpCheckManager, func(ctx context.Context) error {
		var err error
		eligible, err = e.backend.CheckManagerEligibility(ctx, p.user, taxCode)
		return err
	})
	if err != nil {
		e.report(ctx, domain.NoticeCheckManagerError, err, "An error occurred while checking manager of "+taxCode)
		return failed(err)
	}

	next := domain.StepMatch
	if eligible {
		next = domain.StepSelect
	}
	return result{next: next, slots: domain.Slots{domain.SlotManagerEligible: eligible}}
}

func (e *Engine) match(ctx context.Context, p *plan) result {
	taxCode := p.manualTaxCode()
	var res *domain.MatchResult
	err := e.call(ctx, p, classify.OpMatch, func(ctx context.Context) error {
		var err error
		res, err = e.backend.MatchUserToBusiness(ctx, taxCode, p.user)
		return err
	})
	if err != nil {
		e.report(ctx, domain.NoticeMatchError, err, "An error occurred while matching user with "+taxCode)
		return failed(err)
	}
	if res == nil || !res.VerificationResult {
		return result{next: domain.StepNoMatch}
	}
	return result{next: domain.StepSelect}
}

func (e *Engine) verifyAddress(ctx context.Context, p *plan) result {
	sel := p.state.SelectedBusiness
	if sel == nil {
		return failed(fmt.Errorf("no business selected"))
	}

	var addr *domain.LegalAddress
	err := e.call(ctx, p, classify.OpVerifyAddress, func(ctx context.Context) error {
		var err error
		addr, err = e.backend.VerifyLegalAddress(ctx, sel.BusinessTaxID)
		return err
	})
	if err != nil {
		e.report(ctx, domain.NoticeLegalAddressError, err, "An error occurred while verifying legal address of "+sel.BusinessTaxID)
		return failed(err)
	}

	res := result{next: domain.StepSubmit, slots: domain.Slots{domain.SlotLegalAddress: nil}}
	if addr != nil {
		res.slots[domain.SlotLegalAddress] = addr
	}
	return res
}

func (e *Engine) submit(ctx context.Context, p *plan) result {
	sel := p.state.SelectedBusiness
	if sel == nil {
		return failed(fmt.Errorf("no business selected"))
	}
	key := domain.SubmissionKey(sel.BusinessTaxID, e.productID)

	var sr submitResult
	if prior, ok := p.state.Outcomes[key]; ok && prior.Terminal() {
		sr = submitResult{outcome: prior}
	} else {
		sub := domain.Submission{
			TaxCode:        sel.BusinessTaxID,
			ProductID:      e.productID,
			User:           p.user,
			Business:       *sel,
			ContactAddress: p.state.ContactEmail,
		}
		// The flight may serve other sessions: it ignores the starting caller's
		// cancellation and is bounded by the transport timeout instead.
		flight := e.submits.DoChan(key, func() (any, error) {
			return e.submitOnce(context.WithoutCancel(ctx), p, key, sub), nil
		})
		var r singleflight.Result
		select {
		case r = <-flight:
		case <-ctx.Done():
			return failed(ctx.Err())
		}
		sr = r.Val.(submitResult)
		if r.Shared {
			e.logger.Debug("submit collapsed with a concurrent duplicate", "session_id", p.sessionID, "tax_code", sel.BusinessTaxID)
		}
	}

	outcomes := make(map[string]domain.SubmissionOutcome, len(p.state.Outcomes)+1)
	for k, o := range p.state.Outcomes {
		outcomes[k] = o
	}
	outcomes[key] = sr.outcome

	slots := domain.Slots{
		domain.SlotOutcomes:     outcomes,
		domain.SlotContactEmail: nil,
	}

	if !sr.called {
		e.logger.Info("submission already settled, not re-submitting",
			"session_id", p.sessionID,
			"tax_code", sel.BusinessTaxID,
			"outcome", sr.outcome,
		)
	}

	switch sr.outcome {
	case domain.SubmissionAccepted:
		if sr.called {
			e.track(ctx, domain.EventSubmitSuccess)
		}
		next := domain.StepDone
		if e.refetchStatus {
			next = domain.StepConfirm
		}
		return result{next: next, slots: slots}
	case domain.SubmissionAlreadyOnboarded:
		if sr.called {
			e.track(ctx, domain.EventSubmitAlreadyOnboarded)
		}
		kind := domain.KindAlreadyOnboarded
		return result{next: domain.StepAlreadyOnboarded, slots: slots, lastErr: &kind}
	}

	e.track(ctx, domain.EventSubmitGenericError)
	err := sr.err
	if err == nil {
		err = fmt.Errorf("submission outcome %s", sr.outcome)
	}
	e.report(ctx, domain.NoticeSubmitError, err, "An error occurred while submit onboarding of "+sel.BusinessTaxID)
	res := failed(err)
	res.slots = slots
	return res
}

// submitOnce consults the ledger, then submits. Terminal outcomes are
// recorded before returning so later attempts never reach the backend.
func (e *Engine) submitOnce(ctx context.Context, p *plan, key string, sub domain.Submission) submitResult {
	if prior, ok, err := e.ledger.Lookup(ctx, key); err != nil {
		e.logger.Warn("outcome ledger lookup failed", "key", key, "err", err)
	} else if ok && prior.Terminal() {
		return submitResult{outcome: prior}
	}

	var outcome domain.SubmissionOutcome
	err := e.call(ctx, p, classify.OpSubmit, func(ctx context.Context) error {
		var err error
		outcome, err = e.backend.SubmitOnboarding(ctx, sub)
		return err
	})
	if outcome == "" {
		outcome = classify.Submission(err)
	}
	if domain.KindOf(err) == domain.KindUnauthorized {
		outcome = domain.SubmissionGenericFailure
	}
	if outcome.Terminal() {
		if err := e.ledger.Record(context.WithoutCancel(ctx), key, outcome); err != nil {
			e.logger.Warn("failed to record submission outcome", "key", key, "err", err)
		}
	}
	return submitResult{outcome: outcome, err: err, called: true}
}

// confirm is best effort: every outcome lands on DONE.
func (e *Engine) confirm(ctx context.Context, p *plan) result {
	res := result{next: domain.StepDone}
	sel := p.state.SelectedBusiness
	if sel == nil {
		return res
	}

	var status []domain.OnboardingStatus
	err := e.call(ctx, p, classify.OpStatus, func(ctx context.Context) error {
		var err error
		status, err = e.backend.QueryOnboardingStatus(ctx, sel.BusinessTaxID, e.productID)
		return err
	})
	switch {
	case err == nil:
		res.slots = domain.Slots{domain.SlotOnboarding: status}
	case domain.KindOf(err) == domain.KindNotYetAvailable:
		e.logger.Info("onboarding status not yet available", "session_id", p.sessionID, "tax_code", sel.BusinessTaxID)
	default:
		e.report(ctx, domain.NoticeOnboardedPartyError, err, "An error occurred while retrieving onboarded party of "+sel.BusinessTaxID)
	}
	return res
}

// call runs one backend operation and reports it to the hooks.
func (e *Engine) call(ctx context.Context, p *plan, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	e.emitBackendCall(ctx, p.sessionID, p.state.Step, op, err, elapsed)
	if err != nil {
		e.logger.Warn("backend call failed",
			"session_id", p.sessionID,
			"step", p.state.Step,
			"op", op,
			"kind", domain.KindOf(err),
			"err", err,
		)
	}
	return err
}

func (p *plan) manualTaxCode() string {
	if p.state.ManualTaxCode != "" {
		return p.state.ManualTaxCode
	}
	if p.state.LegalEntity != nil && len(p.state.LegalEntity.Businesses) > 0 {
		return p.state.LegalEntity.Businesses[0].BusinessTaxID
	}
	return ""
}

// failed maps a classified failure onto its terminal step.
func failed(err error) result {
	kind := domain.KindOf(err)
	if kind == domain.KindUnauthorized {
		return result{next: domain.StepSessionExpired, lastErr: &kind}
	}
	return result{next: domain.StepError, lastErr: &kind}
}
