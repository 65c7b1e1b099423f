package domain

// Step identifies a state of the onboarding state machine.
type Step string

const (
	StepRetrieve      Step = "retrieve"
	StepCheckManager  Step = "check_manager"
	StepMatch         Step = "match"
	StepSelect        Step = "select"
	StepVerifyAddress Step = "verify_address"
	StepSubmit        Step = "submit"
	StepConfirm       Step = "confirm"

	// Terminal steps (sink states).
	StepDone             Step = "done"
	StepNoMatch          Step = "no_match"
	StepSessionExpired   Step = "session_expired"
	StepAlreadyOnboarded Step = "already_onboarded"
	StepError            Step = "error"
)

// Terminal reports whether the step is a sink state.
func (s Step) Terminal() bool {
	switch s {
	case StepDone, StepNoMatch, StepSessionExpired, StepAlreadyOnboarded, StepError:
		return true
	}
	return false
}

// AwaitsInput reports whether the step halts for user input instead of
// calling the backend on entry.
func (s Step) AwaitsInput() bool {
	return s == StepSelect
}

// Edge is a transition of the state machine. On names what triggers it.
type Edge struct {
	From Step
	To   Step
	On   string
}

// Edges lists every transition the engine may commit.
var Edges = []Edge{
	{StepRetrieve, StepSelect, "businesses found"},
	{StepRetrieve, StepNoMatch, "none found"},
	{StepCheckManager, StepSelect, "eligible"},
	{StepCheckManager, StepMatch, "not eligible"},
	{StepMatch, StepSelect, "matched"},
	{StepMatch, StepNoMatch, "not matched"},
	{StepSelect, StepVerifyAddress, "business selected"},
	{StepVerifyAddress, StepSubmit, "verified"},
	{StepSubmit, StepConfirm, "accepted"},
	{StepSubmit, StepDone, "accepted, no refetch"},
	{StepSubmit, StepAlreadyOnboarded, "already onboarded"},
	{StepConfirm, StepDone, "status read"},
}

// CanTransition reports whether the engine may move from one step to another.
// Every step that calls the backend may fail into StepError or StepSessionExpired.
func CanTransition(from, to Step) bool {
	if (to == StepError || to == StepSessionExpired) && !from.Terminal() && !from.AwaitsInput() {
		return true
	}
	for _, e := range Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// StepState is the engine's working memory, decoded from the history store.
// The engine never keeps a private copy across calls.
type StepState struct {
	Step             Step
	LegalEntity      *LegalEntity
	SelectedBusiness *Business
	ContactEmail     string
	LegalAddress     *LegalAddress
	LastError        ErrorKind
	Outcomes         map[string]SubmissionOutcome
	Onboarding       []OnboardingStatus
	ManagerEligible  *bool
	ManualTaxCode    string
}

// View is what the presentation layer needs to render the current step.
type View struct {
	SessionID  string            `json:"session_id"`
	Step       Step              `json:"step"`
	Terminal   bool              `json:"terminal"`
	Candidates []Business        `json:"candidates,omitempty"`
	Selected   *Business         `json:"selected,omitempty"`
	Email      string            `json:"contact_email,omitempty"`
	Address    *LegalAddress     `json:"legal_address,omitempty"`
	LastError  ErrorKind         `json:"last_error,omitempty"`
	Onboarding *OnboardingStatus `json:"onboarding,omitempty"`
	CanBack    bool              `json:"can_back"`
	CanForward bool              `json:"can_forward"`
}
