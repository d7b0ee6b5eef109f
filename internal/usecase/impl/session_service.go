package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "passport/internal/delivery/context"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/domain/service"
	"passport/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	codec     service.TokenCodec
	policy    service.ExpirationPolicy
	logger    *slog.Logger
}

// SessionServiceParams holds dependencies for sessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	TokenRepo repository.TokenRepository
	Codec     service.TokenCodec
	Policy    service.ExpirationPolicy
	Logger    *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		tokenRepo: params.TokenRepo,
		codec:     params.Codec,
		policy:    params.Policy,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SignIn reconciles the user's token rows down to exactly one valid token and
// returns it. Every step re-reads the store; nothing is cached across calls.
func (srv *sessionService) SignIn(ctx context.Context, userID uuid.UUID) (*usecase.SignInOutput, error) {
	srv.log(ctx).Info("Signing in", slog.Any("userID", userID))

	var issued string

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		tokenRepo := repoFactory.TokenRepo()

		// Concurrent sign-ins for the same user (multiple devices) serialize
		// on the user row so the single-valid-token invariant holds.
		if err := userRepo.AcquireSessionMutex(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrMissingUser.WrapMessage("user not found")
			}

			return errors.Wrap(err, "failed to lock user row for sign-in")
		}

		tokens, err := tokenRepo.FindByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to load tokens for sign-in")
		}

		now := time.Now()
		valid, stale := srv.partitionTokens(tokens, now)

		// Stale rows are rejected at resolve time anyway, so a failed delete
		// is logged and ignored.
		for _, token := range stale {
			if err := tokenRepo.Delete(ctx, token.ID); err != nil {
				srv.log(ctx).Warn("Failed to delete stale token", slog.Any("tokenID", token.ID), slog.Any("error", err))
			}
		}

		// Exactly one unexpired token: reuse the session instead of minting a
		// new token per sign-in.
		if len(valid) == 1 {
			issued = valid[0].Token

			return nil
		}

		// Zero valid tokens, or more than one left behind by an old race.
		// Clear the slate and mint exactly one.
		for _, token := range valid {
			if err := tokenRepo.Delete(ctx, token.ID); err != nil {
				return errors.Wrap(err, "failed to delete superseded token")
			}
		}

		opaque, err := srv.codec.NewOpaqueToken()
		if err != nil {
			return errors.Wrap(err, "failed to generate token")
		}

		newToken := &entity.Token{
			UserID:    userID,
			Token:     opaque,
			IssuedAt:  now,
			ExpiresAt: srv.codec.FormatExpiry(srv.policy.ExpiryOf(now)),
		}

		if err := tokenRepo.Create(ctx, newToken); err != nil {
			return errors.Wrap(err, "failed to persist token")
		}

		issued = newToken.Token

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to execute sign-in transaction", slog.Any("userID", userID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute sign-in transaction")
	}

	srv.log(ctx).Debug("Sign-in completed", slog.Any("userID", userID))

	return &usecase.SignInOutput{Token: issued}, nil
}

// partitionTokens splits token rows into unexpired and expired sets.
func (srv *sessionService) partitionTokens(tokens []*entity.Token, now time.Time) (valid, stale []*entity.Token) {
	for _, token := range tokens {
		if srv.policy.IsExpired(token.ExpiresAt, now) {
			stale = append(stale, token)
		} else {
			valid = append(valid, token)
		}
	}

	return valid, stale
}

// Resolve maps a bearer token string to its owning user.
func (srv *sessionService) Resolve(ctx context.Context, token string) (*entity.User, error) {
	row, err := srv.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, domainerrors.ErrTokenNotFound.WrapMessage("unknown session token")
		}

		return nil, errors.Wrap(err, "failed to look up token")
	}

	// Unparseable expiry counts as expired. The row can never authenticate,
	// so rejecting it is the only safe reading.
	if srv.policy.IsExpired(row.ExpiresAt, time.Now()) {
		// Opportunistic cleanup; the rejection stands either way.
		if err := srv.tokenRepo.Delete(ctx, row.ID); err != nil {
			srv.log(ctx).Warn("Failed to delete expired token", slog.Any("tokenID", row.ID), slog.Any("error", err))
		}

		return nil, domainerrors.ErrTokenExpired.WrapMessage("session token has expired")
	}

	user, err := srv.userRepo.FindByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrMissingUser.WrapMessage("token owner no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load token owner")
	}

	return user, nil
}

// RevokeAll deletes every session token owned by the user.
func (srv *sessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Revoking all sessions", slog.Any("userID", userID))

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.TokenRepo().DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to delete tokens")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to revoke all sessions", slog.Any("userID", userID), slog.Any("error", err))

		return errors.Wrap(err, "failed to revoke all sessions")
	}

	return nil
}
