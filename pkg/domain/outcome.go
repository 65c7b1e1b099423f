package domain

// OutcomeKind is the classification of a raw backend response.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeInvalidInput   OutcomeKind = "invalid_input"
	OutcomeUnauthorized   OutcomeKind = "unauthorized"
	OutcomeNotFound       OutcomeKind = "not_found"
	OutcomeConflict       OutcomeKind = "conflict"
	OutcomeGenericFailure OutcomeKind = "generic_failure"
)

// SubmissionOutcome is the closed result of a submit call.
type SubmissionOutcome string

const (
	SubmissionAccepted         SubmissionOutcome = "accepted"
	SubmissionAlreadyOnboarded SubmissionOutcome = "already_onboarded"
	SubmissionInvalidInput     SubmissionOutcome = "invalid_input"
	SubmissionGenericFailure   SubmissionOutcome = "generic_failure"
)

// Terminal reports whether the outcome settles the (taxCode, productId) pair.
// Terminal outcomes are never re-submitted.
func (o SubmissionOutcome) Terminal() bool {
	return o == SubmissionAccepted || o == SubmissionAlreadyOnboarded
}

// ErrorKind is the failure taxonomy every backend error is normalized into.
type ErrorKind string

const (
	KindUnauthorized     ErrorKind = "unauthorized"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindAlreadyOnboarded ErrorKind = "already_onboarded"
	KindGenericFailure   ErrorKind = "generic_failure"
	KindNotYetAvailable  ErrorKind = "not_yet_available"
)
