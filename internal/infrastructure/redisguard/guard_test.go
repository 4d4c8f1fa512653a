package redisguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T, cooldown time.Duration, hourlyCap int) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cooldown, hourlyCap), mr
}

func TestAllowDispatch_FirstSendAllowed(t *testing.T) {
	g, _ := newTestGuard(t, time.Minute, 5)
	require.NoError(t, g.AllowDispatch(context.Background(), "380971829100"))
}

func TestAllowDispatch_CooldownBlocksSecondSend(t *testing.T) {
	g, _ := newTestGuard(t, time.Minute, 5)
	ctx := context.Background()
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))

	err := g.AllowDispatch(ctx, "380971829100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooManyOTP))
}

func TestAllowDispatch_CooldownExpires(t *testing.T) {
	g, mr := newTestGuard(t, time.Minute, 5)
	ctx := context.Background()
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))
}

func TestAllowDispatch_HourlyCap(t *testing.T) {
	g, mr := newTestGuard(t, time.Second, 2)
	ctx := context.Background()

	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))
	mr.FastForward(2 * time.Second)
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))
	mr.FastForward(2 * time.Second)

	err := g.AllowDispatch(ctx, "380971829100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooManyOTP))
}

func TestAllowDispatch_PhonesIsolated(t *testing.T) {
	g, _ := newTestGuard(t, time.Minute, 5)
	ctx := context.Background()
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))
	require.NoError(t, g.AllowDispatch(ctx, "14155550134"))
}

func TestRelease_AllowsImmediateRetry(t *testing.T) {
	g, _ := newTestGuard(t, time.Minute, 5)
	ctx := context.Background()
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))

	g.Release(ctx, "380971829100")
	require.NoError(t, g.AllowDispatch(ctx, "380971829100"))
}

func TestNilGuard_NoOp(t *testing.T) {
	var g *Guard
	require.NoError(t, g.AllowDispatch(context.Background(), "380971829100"))
	g.Release(context.Background(), "380971829100")
}
