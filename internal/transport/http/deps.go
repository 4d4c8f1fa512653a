package http

import (
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/dynamo"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/identify"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/oauth"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/redisguard"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
//
// OAuthProvider, SMSSender and Guard may be nil when their backing
// configuration is absent; the affected routes degrade rather than the
// whole process refusing to start.
type Deps struct {
	UserRepo           *dynamo.UserRepo
	SessionRepo        *dynamo.SessionRepo
	VerificationRepo   *dynamo.VerificationRepo
	IdentificationRepo *dynamo.IdentificationRepo
	SMSSender          sns.SMSSender
	OAuthProvider      *oauth.Provider
	IdentifyClient     *identify.Client
	Guard              *redisguard.Guard
}
