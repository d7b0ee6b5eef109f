// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"
	"passport/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&userM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their email address.
// The email is matched exactly as stored, with no case folding or trimming.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	// Map the pure domain entity to a GORM persistence model.
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required user information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewStoreExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdatePasswordHash replaces the stored password digest for a user.
func (repo *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return domainerrors.NewStoreExecuteError(result.Error, "failed to update password hash")
	}

	// If no rows were affected, the user does not exist.
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// AcquireSessionMutex locks the user's row for the duration of the surrounding
// transaction. Concurrent sign-ins for the same user serialize on this lock so
// token reconciliation never races.
func (repo *userRepository) AcquireSessionMutex(ctx context.Context, id uuid.UUID) error {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to lock user row")
	}

	return nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
	}
}
