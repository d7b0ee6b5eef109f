// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

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

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete user registration process.
// The email is stored exactly as supplied; uniqueness is byte-exact with no
// case folding or trimming.
func (srv *userService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	if input.Password == "" {
		return nil, domainerrors.ErrMissingPassword.WrapMessage("registration requires a password")
	}
	if input.Email == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("registration requires an email")
	}

	// Hash before entering the transaction; bcrypt is CPU-bound and must not
	// hold a database connection while it runs.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			return domainerrors.ErrDuplicateEmail.WrapMessage("a user with that email already exists")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check email uniqueness")
		}

		// The unique index backs this up; a concurrent insert between the
		// check and the create still surfaces as ErrDuplicateEmail.
		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser}, nil
}

// VerifyPassword checks the supplied credentials and returns the matching user.
// It never mutates state; issuing a session is the caller's next step.
func (srv *userService) VerifyPassword(ctx context.Context, input usecase.VerifyPasswordInput) (*entity.User, error) {
	if input.Password == "" {
		return nil, domainerrors.ErrMissingPassword.WrapMessage("sign-in requires a password")
	}

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Sign-in attempt for unknown email", slog.String("email", input.Email))

			return nil, domainerrors.ErrMissingUser.WrapMessage("no user exists for that email")
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Sign-in password mismatch", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
	}

	return user, nil
}

// ChangePassword rotates the stored digest and revokes every session token the
// user holds. Old tokens must not survive a digest change.
func (srv *userService) ChangePassword(ctx context.Context, input usecase.ChangePasswordInput) error {
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("invalid user id")
	}

	srv.log(ctx).Info("Changing password", slog.Any("userID", userID))

	if input.NewPassword == "" {
		return domainerrors.ErrMissingPassword.WrapMessage("a new password is required")
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrMissingUser.WrapMessage("user not found")
		}

		return errors.Wrap(err, "failed to find user")
	}

	if !srv.hasher.Check(input.CurrentPassword, user.PasswordHash) {
		srv.log(ctx).Warn("Password change rejected, current password mismatch", slog.Any("userID", userID))

		return domainerrors.ErrInvalidCredentials.WrapMessage("current password mismatch")
	}

	// Same rule as registration: hash outside the transaction.
	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		srv.log(ctx).Error("Failed to hash new password", slog.Any("error", err))

		return errors.Wrap(err, "failed to hash new password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		tokenRepo := repoFactory.TokenRepo()

		// Serialize with concurrent sign-ins so no token minted against the
		// old digest survives the rotation.
		if err := userRepo.AcquireSessionMutex(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to lock user row for password change")
		}

		if err := userRepo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
			return errors.Wrap(err, "failed to update password hash")
		}

		if err := tokenRepo.DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to revoke sessions after password change")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to execute password change transaction", slog.Any("userID", userID), slog.Any("error", err))

		return errors.Wrap(err, "failed to execute password change transaction")
	}

	srv.log(ctx).Info("Password changed and sessions revoked", slog.Any("userID", userID))

	return nil
}
