package domain

// Slot names of the Session State Store.
const (
	SlotSelectedBusiness = "selected_business"
	SlotContactEmail     = "inserted_business_email"
	SlotLastError        = "last_error"

	SlotStep            = "step"
	SlotLegalEntity     = "legal_entity"
	SlotLegalAddress    = "legal_address"
	SlotOutcomes        = "submission_outcomes"
	SlotOnboarding      = "onboarding_status"
	SlotManagerEligible = "manager_eligible"
	SlotManualTaxCode   = "manual_tax_code"
)

// Wire constants shared by both backends.
const (
	DefaultProductID = "prod-pn-pg"
	InstitutionPG    = "PG"
	RoleManager      = "MANAGER"
)

// Analytics event names.
const (
	EventRetrieved              = "ONBOARDING_PG_SUCCESS_RETRIEVED"
	EventRetrieveGenericError   = "ONBOARDING_PG_RETRIEVED_GENERIC_ERROR"
	EventSubmitSuccess          = "ONBOARDING_PG_SUBMIT_SUCCESS"
	EventSubmitAlreadyOnboarded = "ONBOARDING_PG_SUBMIT_ALREADY_ONBOARDED"
	EventSubmitGenericError     = "ONBOARDING_PG_SUBMIT_GENERIC_ERROR"
)

// Notice ids reported to the session notifier and the diagnostics collaborator.
const (
	NoticeTokenNotValid       = "tokenNotValid"
	NoticeRetrieveError       = "RETRIEVE_BUSINESSES_BY_USER_ERROR"
	NoticeSubmitError         = "ONBOARDING_PNPG_SUBMIT_ERROR"
	NoticeOnboardedPartyError = "RETRIEVING_ONBOARDED_PARTY_ERROR"
	NoticeLegalAddressError   = "VERIFY_LEGAL_ADDRESS_ERROR"
	NoticeCheckManagerError   = "CHECK_MANAGER_ERROR"
	NoticeMatchError          = "MATCH_BUSINESS_ERROR"
)
