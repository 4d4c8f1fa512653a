package http

import (
	"net/http"

	"github.com/Donatronix/identity-center-ms-sub001/internal/application/kyc"
	"github.com/Donatronix/identity-center-ms-sub001/internal/application/registration"
	"github.com/Donatronix/identity-center-ms-sub001/internal/application/verification"
	"github.com/Donatronix/identity-center-ms-sub001/internal/config"
	"github.com/Donatronix/identity-center-ms-sub001/internal/transport/http/handler"
	appmiddleware "github.com/Donatronix/identity-center-ms-sub001/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-auth-client", "x-hmac-signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.OAuthProvider != nil {
		authMw = appmiddleware.Auth(deps.OAuthProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to the public OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verificationStore := verification.NewStore(deps.VerificationRepo, cfg.OTPTTL, cfg.OTPLength)
	registrationSvc := registration.NewService(deps.UserRepo, verificationStore, deps.SMSSender, deps.OAuthProvider, deps.Guard)
	kycSvc := kyc.NewService(deps.UserRepo, deps.IdentificationRepo, deps.IdentifyClient, deps.IdentifyClient.Signer(), cfg.IdentifyPublicKey)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registrationSvc)
	webhookH := handler.NewWebhookHandler(kycSvc, deps.UserRepo, cfg.IdentifyPublicKey)
	kycH := handler.NewKYCHandler(kycSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/send-phone", authH.SendPhone)
		r.With(sensitiveRL.Limit).Post("/auth/send-sms", authH.SendSMS)
		r.With(sensitiveRL.Limit).Post("/auth/send-code", authH.SendCode)
		r.Post("/auth/refresh-token", authH.RefreshToken)

		// Vendor callbacks authenticate with shared keys, not bearer tokens.
		r.Post("/webhooks/identify/{type}", webhookH.Identify)
		r.Post("/webhooks/identities", webhookH.Identities)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/kyc/sessions", kycH.StartSession)
		})
	})

	return r
}
