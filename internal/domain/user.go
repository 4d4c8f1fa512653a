package domain

import "time"

// User statuses. Banned is terminal: every flow short-circuits on it.
const (
	StatusInactive = "inactive"
	StatusActive   = "active"
	StatusBanned   = "banned"
)

type User struct {
	UserID      string    `json:"id" dynamodbav:"user_id"`
	Phone       string    `json:"phone" dynamodbav:"phone"`
	Username    string    `json:"username,omitempty" dynamodbav:"username"`
	UsernameLC  string    `json:"-" dynamodbav:"username_lc"`
	Status      string    `json:"status" dynamodbav:"status"`
	KYCVerified bool      `json:"kyc_verified" dynamodbav:"kyc_verified"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// DisplayName is the username once claimed, otherwise the phone number.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Phone
}

type SendPhoneRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type SendCodeRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Sid      string `json:"sid" validate:"required"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type StartIdentifyRequest struct {
	DocumentType string `json:"document_type" validate:"required,oneof=PASSPORT ID_CARD DRIVERS_LICENSE RESIDENCE_PERMIT"`
}
