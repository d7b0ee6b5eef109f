package postgres

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"passport/internal/infra/persistence/model"
)

// Migrate creates or updates the tables backing the auth subsystem.
// It is idempotent and safe to run at every startup.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return errors.Wrap(err, "failed to ensure uuid-ossp extension")
	}

	if err := db.AutoMigrate(&model.UserModel{}, &model.TokenModel{}); err != nil {
		return errors.Wrap(err, "failed to migrate auth tables")
	}

	return nil
}

// Drop removes the tables backing the auth subsystem. Tokens go first so the
// foreign key to users never dangles.
func Drop(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&model.TokenModel{}, &model.UserModel{}); err != nil {
		return errors.Wrap(err, "failed to drop auth tables")
	}

	return nil
}
