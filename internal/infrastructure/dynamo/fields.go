package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldConsumed         = "consumed"
	fieldStatus           = "status"
	fieldUsername         = "username"
	fieldUsernameLC       = "username_lc"
	fieldKYCVerified      = "kyc_verified"
	fieldEnable           = "enable"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)
