package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/config"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/dynamo"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/identify"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/oauth"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/redisguard"
	"github.com/Donatronix/identity-center-ms-sub001/internal/infrastructure/sns"
	transporthttp "github.com/Donatronix/identity-center-ms-sub001/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)

	// Token provider (optional — graceful fallback if keys are missing).
	var oauthProvider *oauth.Provider
	if p, err := oauth.NewProvider(cfg, sessionRepo, userRepo); err == nil {
		oauthProvider = p
	} else {
		log.Printf("WARN: token provider not available: %v", err)
	}

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// Redis-backed OTP dispatch throttle (optional).
	var guard *redisguard.Guard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		guard = redisguard.New(rdb, cfg.OTPResendCooldown, cfg.OTPHourlyCap)
	} else {
		log.Println("WARN: REDIS_ADDR not set, OTP dispatch throttle disabled")
	}

	deps := &transporthttp.Deps{
		UserRepo:           userRepo,
		SessionRepo:        sessionRepo,
		VerificationRepo:   dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.VerificationSessions),
		IdentificationRepo: dynamo.NewIdentificationRepo(dynamoClient, cfg.DynamoTables.IdentificationSessions),
		SMSSender:          smsSender,
		OAuthProvider:      oauthProvider,
		IdentifyClient:     identify.NewClient(cfg),
		Guard:              guard,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second, // vendor calls may run up to the 40s timeout
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
