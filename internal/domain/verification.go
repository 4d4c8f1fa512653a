package domain

// Verification purposes. A user has at most one unconsumed session per purpose.
const (
	PurposeRegistration = "registration"
	PurposeLogin        = "login"
)

// VerificationSession is one outstanding one-time code.
// PK: sid. GSIs: user-purpose-index (user_id, purpose), code-index (code).
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationSession struct {
	Sid       string `json:"sid" dynamodbav:"sid"`
	Code      string `json:"-" dynamodbav:"code"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`
	Consumed  bool   `json:"consumed" dynamodbav:"consumed"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}
