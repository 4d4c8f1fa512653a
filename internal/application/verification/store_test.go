package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo mirrors the DynamoDB repo contract in memory: Put rejects duplicate
// sids and MarkConsumed is a mutex-guarded compare-and-set, matching the
// conditional-update semantics of the real implementation.
type memRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.VerificationSession
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]*domain.VerificationSession)}
}

func (r *memRepo) Put(_ context.Context, v *domain.VerificationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[v.Sid]; ok {
		return fmt.Errorf("sid collision: %w", domain.ErrConflict)
	}
	cp := *v
	r.sessions[v.Sid] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, sid string) (*domain.VerificationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("not found: %w", domain.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (r *memRepo) GetActiveByUser(_ context.Context, userID, purpose string) (*domain.VerificationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sessions {
		if v.UserID == userID && v.Purpose == purpose && !v.Consumed {
			cp := *v
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("not found: %w", domain.ErrNotFound)
}

func (r *memRepo) CodeInUse(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sessions {
		if v.Code == code && !v.Consumed {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) MarkConsumed(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.sessions[sid]
	if !ok || v.Consumed {
		return fmt.Errorf("consumed or missing: %w", domain.ErrInvalidSession)
	}
	v.Consumed = true
	return nil
}

func (r *memRepo) Delete(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	return nil
}

func newTestStore(repo Repo) *Store {
	return NewStore(repo, 10*time.Minute, 6)
}

func TestCreate_GeneratesSidAndFixedLengthCode(t *testing.T) {
	repo := newMemRepo()
	v, err := newTestStore(repo).Create(context.Background(), "u1", domain.PurposeRegistration)
	require.NoError(t, err)

	assert.NotEmpty(t, v.Sid)
	assert.Len(t, v.Code, 6)
	for _, r := range v.Code {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.False(t, v.Consumed)
	assert.Greater(t, v.ExpiresAt, time.Now().Unix())
}

func TestCreate_InvalidatesPriorSessionForSamePurpose(t *testing.T) {
	repo := newMemRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	first, err := store.Create(ctx, "u1", domain.PurposeRegistration)
	require.NoError(t, err)
	second, err := store.Create(ctx, "u1", domain.PurposeRegistration)
	require.NoError(t, err)
	require.NotEqual(t, first.Sid, second.Sid)

	_, err = store.Resolve(ctx, first.Sid)
	assert.True(t, errors.Is(err, domain.ErrInvalidSession))

	_, err = store.Resolve(ctx, second.Sid)
	assert.NoError(t, err)
}

func TestCreate_DifferentPurposesCoexist(t *testing.T) {
	repo := newMemRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	reg, err := store.Create(ctx, "u1", domain.PurposeRegistration)
	require.NoError(t, err)
	login, err := store.Create(ctx, "u1", domain.PurposeLogin)
	require.NoError(t, err)

	_, err = store.Resolve(ctx, reg.Sid)
	assert.NoError(t, err)
	_, err = store.Resolve(ctx, login.Sid)
	assert.NoError(t, err)
}

func TestResolve_FailsClosed(t *testing.T) {
	repo := newMemRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	// unknown sid
	_, err := store.Resolve(ctx, "01HUNKNOWNSID0000000000000")
	assert.True(t, errors.Is(err, domain.ErrInvalidSession))

	// consumed sid
	v, err := store.Create(ctx, "u1", domain.PurposeRegistration)
	require.NoError(t, err)
	require.NoError(t, store.Consume(ctx, v.Sid))
	_, err = store.Resolve(ctx, v.Sid)
	assert.True(t, errors.Is(err, domain.ErrInvalidSession))

	// expired sid
	expired := &domain.VerificationSession{
		Sid: "01HEXPIREDSID0000000000000", Code: "111111", UserID: "u2",
		Purpose:   domain.PurposeRegistration,
		CreatedAt: time.Now().Add(-time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-30 * time.Minute).Unix(),
	}
	require.NoError(t, repo.Put(context.Background(), expired))
	_, err = store.Resolve(ctx, expired.Sid)
	assert.True(t, errors.Is(err, domain.ErrInvalidSession))
}

func TestConsume_SingleUse(t *testing.T) {
	repo := newMemRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	v, err := store.Create(ctx, "u1", domain.PurposeRegistration)
	require.NoError(t, err)

	require.NoError(t, store.Consume(ctx, v.Sid))
	err = store.Consume(ctx, v.Sid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSession))
}

func TestConsume_ConcurrentCallersOnlyOneWins(t *testing.T) {
	repo := newMemRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	v, err := store.Create(ctx, "u1", domain.PurposeRegistration)
	require.NoError(t, err)

	const callers = 32
	var wg sync.WaitGroup
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = store.Consume(ctx, v.Sid)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, e := range errs {
		if e == nil {
			wins++
		} else {
			assert.True(t, errors.Is(e, domain.ErrInvalidSession))
		}
	}
	assert.Equal(t, 1, wins)
}

func TestCreate_RetriesOnCodeCollision(t *testing.T) {
	repo := newMemRepo()
	store := newTestStore(repo)
	ctx := context.Background()

	// Many sessions for distinct users: every code must be unique among the
	// unconsumed set regardless of owner.
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		v, err := store.Create(ctx, fmt.Sprintf("u%d", i), domain.PurposeRegistration)
		require.NoError(t, err)
		assert.False(t, seen[v.Code], "code %s issued twice while unconsumed", v.Code)
		seen[v.Code] = true
	}
}
