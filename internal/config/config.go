package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SNSRegion string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration

	// One-time code policy.
	OTPLength         int
	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	OTPHourlyCap      int

	// KYC vendor (webhook signing keys are shared secrets).
	IdentifyBaseURL    string
	IdentifyPublicKey  string
	IdentifyPrivateKey string
	IdentifyTimeout    time.Duration
	IdentifyCallback   string // URL the vendor redirects to after a session

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                  string
	Sessions               string
	VerificationSessions   string
	IdentificationSessions string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:                  getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:               getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			VerificationSessions:   getEnv("DYNAMO_TABLE_VERIFICATION_SESSIONS", "verification_sessions"),
			IdentificationSessions: getEnv("DYNAMO_TABLE_IDENTIFICATION_SESSIONS", "identification_sessions"),
		},

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		AccessTokenTTL:    time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		RefreshTokenTTL:   time.Duration(getEnvInt("REFRESH_TOKEN_TTL_DAYS", 30)) * 24 * time.Hour,

		OTPLength:         getEnvInt("OTP_LENGTH", 6),
		OTPTTL:            time.Duration(getEnvInt("OTP_TTL_MINUTES", 10)) * time.Minute,
		OTPResendCooldown: time.Duration(getEnvInt("OTP_RESEND_COOLDOWN_SECONDS", 60)) * time.Second,
		OTPHourlyCap:      getEnvInt("OTP_HOURLY_CAP", 5),

		IdentifyBaseURL:    getEnv("IDENTIFY_BASE_URL", "https://stationapi.veriff.com"),
		IdentifyPublicKey:  getEnv("IDENTIFY_PUBLIC_KEY", ""),
		IdentifyPrivateKey: getEnv("IDENTIFY_PRIVATE_KEY", ""),
		IdentifyTimeout:    time.Duration(getEnvInt("IDENTIFY_TIMEOUT_SECONDS", 40)) * time.Second,
		IdentifyCallback:   getEnv("IDENTIFY_CALLBACK_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
