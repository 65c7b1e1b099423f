package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// Backend is the typed set of remote onboarding operations.
// Both the live gateway and the mock backend implement it, and every failure
// they return is a *domain.Error carrying a taxonomy kind.
type Backend interface {
	// RetrieveEligibleBusinesses lists the businesses the user can onboard.
	RetrieveEligibleBusinesses(ctx context.Context, user domain.User) (*domain.LegalEntity, error)

	// VerifyLegalAddress returns the registered address of a business.
	// A nil address with a nil error means no address is registered.
	VerifyLegalAddress(ctx context.Context, taxCode string) (*domain.LegalAddress, error)

	// MatchUserToBusiness correlates a business with the user in the external registry.
	MatchUserToBusiness(ctx context.Context, taxCode string, user domain.User) (*domain.MatchResult, error)

	// SubmitOnboarding registers the business and its manager.
	// The error is nil for Accepted and AlreadyOnboarded.
	SubmitOnboarding(ctx context.Context, sub domain.Submission) (domain.SubmissionOutcome, error)

	// QueryOnboardingStatus lists the active onboardings of a business for a product.
	QueryOnboardingStatus(ctx context.Context, taxCode, productID string) ([]domain.OnboardingStatus, error)

	// CheckManagerEligibility reports whether the user is a recognized manager of the business.
	CheckManagerEligibility(ctx context.Context, user domain.User, taxCode string) (bool, error)
}
