package gateway

import "github.com/aretw0/onboard/pkg/domain"

// Request bodies of the onboarding API.

type userDTO struct {
	TaxCode string `json:"taxCode"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
}

type retrieveRequest struct {
	TaxCode string `json:"taxCode"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

type legalAddressRequest struct {
	TaxCode string `json:"taxCode"`
}

type matchRequest struct {
	TaxCode string  `json:"taxCode"`
	UserDTO userDTO `json:"userDto"`
}

type billingDataDTO struct {
	Certified      bool   `json:"certified"`
	BusinessName   string `json:"businessName"`
	TaxCode        string `json:"taxCode"`
	DigitalAddress string `json:"digitalAddress"`
}

type companyOnboardingRequest struct {
	ProductID       string         `json:"productId"`
	BillingData     billingDataDTO `json:"billingData"`
	InstitutionType string         `json:"institutionType"`
	TaxCode         string         `json:"taxCode"`
	Users           []userDTO      `json:"users"`
}

type checkManagerRequest struct {
	InstitutionType string    `json:"institutionType"`
	ProductID       string    `json:"productId"`
	TaxCode         string    `json:"taxCode"`
	Users           []userDTO `json:"users"`
}

type managerResult struct {
	Result bool `json:"result"`
}

func manager(u domain.User, withEmail bool) userDTO {
	dto := userDTO{
		TaxCode: u.TaxCode,
		Name:    u.Name,
		Surname: u.Surname,
		Role:    domain.RoleManager,
	}
	if withEmail {
		dto.Email = u.Email
	}
	return dto
}

func toCompanyOnboarding(sub domain.Submission) companyOnboardingRequest {
	return companyOnboardingRequest{
		ProductID: sub.ProductID,
		BillingData: billingDataDTO{
			Certified:      sub.Business.Certified,
			BusinessName:   sub.Business.BusinessName,
			TaxCode:        sub.Business.BusinessTaxID,
			DigitalAddress: sub.ContactAddress,
		},
		InstitutionType: domain.InstitutionPG,
		TaxCode:         sub.TaxCode,
		Users:           []userDTO{manager(sub.User, true)},
	}
}
