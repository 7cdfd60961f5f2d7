package domain

import "time"

type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func IsValidVerificationStatus(status VerificationStatus) bool {
	switch status {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	default:
		return false
	}
}

type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	UserType  UserType  `json:"user_type"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// SellerProfile carries the business-approval state, independent of any
// order lifecycle. Only verified sellers may list crops.
type SellerProfile struct {
	ID                  string             `json:"id"`
	ProfileID           string             `json:"profile_id"`
	BusinessName        string             `json:"business_name"`
	BusinessDescription string             `json:"business_description,omitempty"`
	VerificationStatus  VerificationStatus `json:"verification_status"`
	Rating              float64            `json:"rating"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
