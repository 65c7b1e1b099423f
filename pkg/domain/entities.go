package domain

import "time"

// User is the authenticated representative submitting the onboarding.
// It is loaded from the host session and never mutated by the engine.
type User struct {
	UID     string `json:"uid,omitempty" mapstructure:"uid"`
	TaxCode string `json:"taxCode" mapstructure:"taxCode"`
	Name    string `json:"name" mapstructure:"name"`
	Surname string `json:"surname" mapstructure:"surname"`
	Email   string `json:"email,omitempty" mapstructure:"email"`
}

// Business is a single candidate organization that can be selected and onboarded.
type Business struct {
	BusinessTaxID string `json:"businessTaxId" mapstructure:"businessTaxId"`
	BusinessName  string `json:"businessName" mapstructure:"businessName"`
	// Certified reports whether an authoritative registry certified the identity.
	Certified bool              `json:"certified" mapstructure:"certified"`
	Metadata  map[string]string `json:"metadata,omitempty" mapstructure:"metadata"`
}

// LegalEntity aggregates the businesses eligible under the requesting tax code.
type LegalEntity struct {
	Businesses      []Business `json:"businesses" mapstructure:"businesses"`
	LegalTaxID      string     `json:"legalTaxId" mapstructure:"legalTaxId"`
	RequestDateTime string     `json:"requestDateTime" mapstructure:"requestDateTime"`
}

// Find returns the business with the given tax id.
func (l *LegalEntity) Find(taxID string) (Business, bool) {
	if l == nil {
		return Business{}, false
	}
	for _, b := range l.Businesses {
		if b.BusinessTaxID == taxID {
			return b, true
		}
	}
	return Business{}, false
}

// LegalAddress is the registered address of a business.
type LegalAddress struct {
	TaxCode string `json:"taxCode" mapstructure:"taxCode"`
	Address string `json:"address" mapstructure:"address"`
	ZipCode string `json:"zipCode" mapstructure:"zipCode"`
}

// MatchResult is the outcome of correlating a business tax code with a user
// in the external registry.
type MatchResult struct {
	VerificationResult bool `json:"verificationResult" mapstructure:"verificationResult"`
}

// OnboardingRecord is a single registration of an institution on a product.
type OnboardingRecord struct {
	Billing   string    `json:"billing,omitempty" mapstructure:"billing"`
	CreatedAt time.Time `json:"createdAt" mapstructure:"createdAt"`
	ProductID string    `json:"productId" mapstructure:"productId"`
	Status    string    `json:"status" mapstructure:"status"`
}

// Lifecycle statuses of an OnboardingRecord.
const (
	RecordActive  = "ACTIVE"
	RecordPending = "PENDING"
)

// OnboardingStatus lists the registrations of an institution.
type OnboardingStatus struct {
	InstitutionID string             `json:"institutionId" mapstructure:"institutionId"`
	Onboardings   []OnboardingRecord `json:"onboardings" mapstructure:"onboardings"`
}

// Submission carries everything the submit operation sends to the backend.
type Submission struct {
	TaxCode        string
	ProductID      string
	User           User
	Business       Business
	ContactAddress string
}

// SubmissionKey identifies a (taxCode, productId) pair for idempotency checks.
func SubmissionKey(taxCode, productID string) string {
	return taxCode + "|" + productID
}
