// Package classify maps raw backend responses onto the outcome taxonomy.
//
// The table is shared verbatim by the live gateway and the mock backend, so
// the engine observes identical behavior whichever backend is wired in.
package classify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/onboard/pkg/domain"
)

// Backend operation names, used as Error.Op and as metric labels.
const (
	OpRetrieve      = "retrieve_eligible_businesses"
	OpVerifyAddress = "verify_legal_address"
	OpMatch         = "match_user_to_business"
	OpSubmit        = "submit_onboarding"
	OpStatus        = "query_onboarding_status"
	OpCheckManager  = "check_manager_eligibility"
)

var table = map[int]domain.OutcomeKind{
	http.StatusBadRequest:   domain.OutcomeInvalidInput,
	http.StatusUnauthorized: domain.OutcomeUnauthorized,
	http.StatusNotFound:     domain.OutcomeNotFound,
	http.StatusConflict:     domain.OutcomeConflict,
}

// Kind classifies a status code. The body does not influence the kind.
func Kind(status int, body []byte) domain.OutcomeKind {
	if status >= 200 && status < 300 {
		return domain.OutcomeSuccess
	}
	if kind, ok := table[status]; ok {
		return kind
	}
	return domain.OutcomeGenericFailure
}

// Rule maps the classified kinds an operation expects onto taxonomy kinds.
// Any kind not listed is a generic failure.
type Rule map[domain.OutcomeKind]domain.ErrorKind

var rules = map[string]Rule{
	OpRetrieve: {
		domain.OutcomeUnauthorized: domain.KindUnauthorized,
	},
	OpVerifyAddress: {
		domain.OutcomeUnauthorized: domain.KindUnauthorized,
		domain.OutcomeInvalidInput: domain.KindInvalidInput,
	},
	OpMatch: {
		domain.OutcomeUnauthorized: domain.KindUnauthorized,
	},
	OpSubmit: {
		domain.OutcomeUnauthorized: domain.KindUnauthorized,
		domain.OutcomeInvalidInput: domain.KindInvalidInput,
		domain.OutcomeConflict:     domain.KindAlreadyOnboarded,
	},
	OpStatus: {
		domain.OutcomeUnauthorized: domain.KindUnauthorized,
		domain.OutcomeNotFound:     domain.KindNotYetAvailable,
	},
	OpCheckManager: {
		domain.OutcomeUnauthorized: domain.KindUnauthorized,
	},
}

// Problem is the error body returned by the backend.
type Problem struct {
	StatusCode  int    `json:"statusCode"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// ProblemBody renders the problem body a backend would send for status.
func ProblemBody(status int, description string) []byte {
	raw, _ := json.Marshal(Problem{StatusCode: status, Description: description})
	return raw
}

// Failure converts a non-2xx response of op into a structured error.
// It returns nil for 2xx statuses.
func Failure(op string, status int, body []byte) error {
	kind := Kind(status, body)
	if kind == domain.OutcomeSuccess {
		return nil
	}
	errKind, ok := rules[op][kind]
	if !ok {
		errKind = domain.KindGenericFailure
	}
	return &domain.Error{
		Kind:        errKind,
		Op:          op,
		Status:      status,
		Description: describe(body),
	}
}

// Transport normalizes a transport or decoding error of op.
// Timeouts and cancellations are generic failures as well.
func Transport(op string, err error) error {
	var e *domain.Error
	if errors.As(err, &e) {
		return err
	}
	return &domain.Error{Kind: domain.KindGenericFailure, Op: op, Cause: err}
}

// Submission maps a submit error onto the closed submission outcome set.
func Submission(err error) domain.SubmissionOutcome {
	if err == nil {
		return domain.SubmissionAccepted
	}
	switch domain.KindOf(err) {
	case domain.KindAlreadyOnboarded:
		return domain.SubmissionAlreadyOnboarded
	case domain.KindInvalidInput:
		return domain.SubmissionInvalidInput
	default:
		return domain.SubmissionGenericFailure
	}
}

func describe(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var p Problem
	if err := json.Unmarshal(body, &p); err != nil {
		return ""
	}
	if p.Description != "" {
		return p.Description
	}
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}
