package impl

import (
	"context"
	"testing"
	"time"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/infra/auth"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionTestEnv struct {
	userRepo  *fakeUserRepo
	tokenRepo *fakeTokenRepo
	svc       usecase.SessionUsecase
	user      *entity.User
}

func newSessionTestEnv(t *testing.T) *sessionTestEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	factory := &fakeRepoFactory{userRepo: userRepo, tokenRepo: tokenRepo}

	codec := auth.NewTokenCodec()
	policy := auth.NewExpirationPolicy(&config.Config{}, codec)

	svc := &sessionService{
		txManager: &fakeTxManager{factory: factory},
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		codec:     codec,
		policy:    policy,
		logger:    newDiscardLogger(),
	}

	user := seedUser(t, userRepo, "Alice", "alice@x.com", "secret")

	return &sessionTestEnv{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		svc:       svc,
		user:      user,
	}
}

// seedToken inserts a token row whose expiry is offset from now.
func (env *sessionTestEnv) seedToken(t *testing.T, value string, expiresIn time.Duration) *entity.Token {
	t.Helper()

	codec := auth.NewTokenCodec()
	now := time.Now()
	token := &entity.Token{
		UserID:    env.user.ID,
		Token:     value,
		IssuedAt:  now,
		ExpiresAt: codec.FormatExpiry(now.Add(expiresIn)),
	}
	require.NoError(t, env.tokenRepo.Create(context.Background(), token))

	return token
}

func TestSignInMintsTokenWhenNoneExist(t *testing.T) {
	env := newSessionTestEnv(t)

	output, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, output.Token)
	assert.Equal(t, 1, env.tokenRepo.count(env.user.ID))

	row, err := env.tokenRepo.FindByToken(context.Background(), output.Token)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, row.UserID)
}

func TestSignInReusesSingleValidToken(t *testing.T) {
	env := newSessionTestEnv(t)

	first, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)

	second, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)

	// Signing in again immediately reuses the session instead of minting.
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, 1, env.tokenRepo.count(env.user.ID))
}

func TestSignInPurgesStaleTokens(t *testing.T) {
	env := newSessionTestEnv(t)
	stale := env.seedToken(t, "stale-token", -time.Hour)

	output, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, stale.Token, output.Token)
	assert.Equal(t, 1, env.tokenRepo.count(env.user.ID))

	_, err = env.tokenRepo.FindByToken(context.Background(), "stale-token")
	assert.Error(t, err, "stale row must be purged on sign-in")
}

func TestSignInCollapsesMultipleValidTokens(t *testing.T) {
	env := newSessionTestEnv(t)
	env.seedToken(t, "race-token-1", time.Hour)
	env.seedToken(t, "race-token-2", time.Hour)

	output, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)

	// More than one valid row only happens via an old race; sign-in collapses
	// the set to exactly one fresh token.
	assert.Equal(t, 1, env.tokenRepo.count(env.user.ID))
	assert.NotEqual(t, "race-token-1", output.Token)
	assert.NotEqual(t, "race-token-2", output.Token)
}

func TestSignInStaleDeleteFailureIsNotFatal(t *testing.T) {
	env := newSessionTestEnv(t)
	valid := env.seedToken(t, "valid-token", time.Hour)
	stale := env.seedToken(t, "stale-token", -time.Hour)
	env.tokenRepo.deleteErrs[stale.ID] = errors.New("store hiccup")

	output, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)

	// The surviving stale row is harmless; resolve rejects it anyway.
	assert.Equal(t, valid.Token, output.Token)
}

func TestSignInUnknownUser(t *testing.T) {
	env := newSessionTestEnv(t)

	_, err := env.svc.SignIn(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrMissingUser)
}

func TestResolve(t *testing.T) {
	env := newSessionTestEnv(t)

	output, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)

	user, err := env.svc.Resolve(context.Background(), output.Token)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, user.ID)
}

func TestResolveUnknownToken(t *testing.T) {
	env := newSessionTestEnv(t)

	_, err := env.svc.Resolve(context.Background(), "never-issued")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenNotFound)
}

func TestResolveExpiredToken(t *testing.T) {
	env := newSessionTestEnv(t)
	env.seedToken(t, "expired-token", -time.Minute)

	_, err := env.svc.Resolve(context.Background(), "expired-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The expired row was opportunistically deleted.
	assert.Zero(t, env.tokenRepo.count(env.user.ID))
}

func TestResolveMalformedExpiryFailsClosed(t *testing.T) {
	env := newSessionTestEnv(t)
	require.NoError(t, env.tokenRepo.Create(context.Background(), &entity.Token{
		UserID:    env.user.ID,
		Token:     "corrupt-token",
		IssuedAt:  time.Now(),
		ExpiresAt: "not a timestamp",
	}))

	_, err := env.svc.Resolve(context.Background(), "corrupt-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestRevokeAll(t *testing.T) {
	env := newSessionTestEnv(t)
	env.seedToken(t, "token-1", time.Hour)
	env.seedToken(t, "token-2", -time.Hour)

	require.NoError(t, env.svc.RevokeAll(context.Background(), env.user.ID))
	assert.Zero(t, env.tokenRepo.count(env.user.ID))
}

func TestSignInAcquiresSessionMutex(t *testing.T) {
	env := newSessionTestEnv(t)

	_, err := env.svc.SignIn(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.userRepo.lockCalls)
}
