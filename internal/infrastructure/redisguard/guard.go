package redisguard

import (
	"context"
	"fmt"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	cooldownPrefix = "otp:cooldown:"
	counterPrefix  = "otp:count:"
)

// Guard throttles OTP dispatches per phone number: a fixed cooldown between
// consecutive sends plus a rolling hourly cap. It protects the SMS budget and
// blunts enumeration, it is not the anti-replay mechanism (the session store
// CAS is).
type Guard struct {
	rdb       *redis.Client
	cooldown  time.Duration
	hourlyCap int
}

func New(rdb *redis.Client, cooldown time.Duration, hourlyCap int) *Guard {
	return &Guard{rdb: rdb, cooldown: cooldown, hourlyCap: hourlyCap}
}

// AllowDispatch reserves a send slot for the phone. Returns ErrTooManyOTP
// when the cooldown has not elapsed or the hourly cap is reached.
func (g *Guard) AllowDispatch(ctx context.Context, phone string) error {
	if g == nil || g.rdb == nil {
		return nil // guard not configured
	}

	ok, err := g.rdb.SetNX(ctx, cooldownPrefix+phone, 1, g.cooldown).Result()
	if err != nil {
		return fmt.Errorf("otp cooldown check: %w", err)
	}
	if !ok {
		return fmt.Errorf("resend cooldown active for %s: %w", phone, domain.ErrTooManyOTP)
	}

	key := counterPrefix + phone
	n, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("otp counter: %w", err)
	}
	if n == 1 {
		if err := g.rdb.Expire(ctx, key, time.Hour).Err(); err != nil {
			return fmt.Errorf("otp counter expiry: %w", err)
		}
	}
	if int(n) > g.hourlyCap {
		return fmt.Errorf("hourly code cap reached for %s: %w", phone, domain.ErrTooManyOTP)
	}
	return nil
}

// Release drops the cooldown reservation, letting the client retry
// immediately after a dispatch that never reached the gateway.
func (g *Guard) Release(ctx context.Context, phone string) {
	if g == nil || g.rdb == nil {
		return
	}
	g.rdb.Del(ctx, cooldownPrefix+phone)
	g.rdb.Decr(ctx, counterPrefix+phone)
}
