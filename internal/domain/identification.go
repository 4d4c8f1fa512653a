package domain

// Vendor decision statuses as reported on the decisions webhook.
const (
	IdentifyStatusApproved     = "approved"
	IdentifyStatusDeclined     = "declined"
	IdentifyStatusResubmission = "resubmission_requested"
	IdentifyStatusExpired      = "expired"
	IdentifyStatusAbandoned    = "abandoned"
)

// IdentificationSession is one ingested vendor webhook delivery.
// PK: session_id (vendor-assigned). Append-only: rows are never mutated, the
// raw payload is kept verbatim for audit.
type IdentificationSession struct {
	SessionID string `json:"session_id" dynamodbav:"session_id"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Kind      string `json:"kind" dynamodbav:"kind"`
	Status    string `json:"status" dynamodbav:"status"`
	Payload   string `json:"payload" dynamodbav:"payload"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
}
