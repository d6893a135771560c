package models

const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"

	UserAccountActiveStatus = "active"
	UserAccountLockedStatus = "locked"
)

// Verification status mirrored on the user profile.
const (
	VerificationStatusNone     = "none"
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
	VerificationStatusRejected = "rejected"
)

const (
	KycStatusPending  = "pending"
	KycStatusApproved = "approved"
	KycStatusRejected = "rejected"
)

const (
	KycIDTypePassport      = "passport"
	KycIDTypeNationalId    = "nationalId"
	KycIDTypeDriverLicense = "driverLicense"
)

const (
	AddressProofUtilityBill     = "utilityBill"
	AddressProofBankStatement   = "bankStatement"
	AddressProofRentalAgreement = "rentalAgreement"
)

const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in-progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

const (
	TicketCategoryGeneral   = "general"
	TicketCategoryAccount   = "account"
	TicketCategoryPayments  = "payments"
	TicketCategoryKyc       = "kyc"
	TicketCategoryTechnical = "technical"
)

func KycIDTypes() []string {
	return []string{KycIDTypePassport, KycIDTypeNationalId, KycIDTypeDriverLicense}
}

func AddressProofTypes() []string {
	return []string{AddressProofUtilityBill, AddressProofBankStatement, AddressProofRentalAgreement}
}

func TicketStatuses() []string {
	return []string{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}
}

func TicketPriorities() []string {
	return []string{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
}

func TicketCategories() []string {
	return []string{TicketCategoryGeneral, TicketCategoryAccount, TicketCategoryPayments, TicketCategoryKyc, TicketCategoryTechnical}
}
