package mockbackend

import (
	"time"

	"github.com/aretw0/onboard/pkg/domain"
)

// Sentinel tax codes with a fixed behavior.
const (
	TaxCodeSuccess          = "01113570442"
	TaxCodeAlreadyOnboarded = "01501320442"
	TaxCodeGenericError     = "22222222222"
	TaxCodeInvalidFormat    = "11111111111"
	TaxCodeManager          = "12323231321"
	TaxCodeRegistryMatch    = "55555555555"
	TaxCodeRegistryMatch2   = "51515151511"
)

// LoggedUser is the user the demo commands authenticate as.
var LoggedUser = domain.User{
	UID:     "00123",
	TaxCode: "MCCDLL91C25B115B",
	Name:    "mockedUserName",
	Surname: "mockedUserSurname",
	Email:   "email@mockemail.com",
}

// Catalog returns the legal entity every retrieval yields.
func Catalog() *domain.LegalEntity {
	return &domain.LegalEntity{
		Businesses: []domain.Business{
			{BusinessTaxID: TaxCodeSuccess, BusinessName: "BusinessName success"},
			{BusinessTaxID: TaxCodeAlreadyOnboarded, BusinessName: "BusinessName alreadyOnboarded"},
			{BusinessTaxID: TaxCodeGenericError, BusinessName: "BusinessName genericError"},
		},
		LegalTaxID:      "1234567",
		RequestDateTime: "x",
	}
}

var legalAddresses = map[string]domain.LegalAddress{
	"77777777777": {TaxCode: "77777777777", Address: "Via retrievedInstitutionLegalAddress1", ZipCode: "98765"},
	"88888888888": {TaxCode: "88888888888", Address: "Via retrievedInstitutionLegalAddress2", ZipCode: "56789"},
}

// registry is the external-registry sample used by the match operation.
var registry = map[string]string{
	TaxCodeRegistryMatch:  "retrieved in EdA mock 1",
	TaxCodeRegistryMatch2: "retrieved in EdA mock 2",
}

var managers = map[string]bool{
	TaxCodeManager:       true,
	TaxCodeRegistryMatch: false,
}

// TaxCodeSuccess reports a status so a successful submit has one to show.
var activeSentinels = map[string]bool{
	TaxCodeSuccess:          true,
	TaxCodeAlreadyOnboarded: true,
	TaxCodeRegistryMatch2:   true,
}

// ActiveStatus returns the onboarding status reported for active sentinels.
func ActiveStatus() domain.OnboardingStatus {
	return domain.OnboardingStatus{
		InstitutionID: "retrievedPartyId01",
		Onboardings: []domain.OnboardingRecord{{
			Billing:   "mockedBilling",
			CreatedAt: time.Date(2024, time.October, 15, 3, 24, 0, 0, time.UTC),
			ProductID: domain.DefaultProductID,
			Status:    domain.RecordActive,
		}},
	}
}
