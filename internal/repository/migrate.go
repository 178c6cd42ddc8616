package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// AutoMigrate ensures the schema for every model is available. Requires the
// gorm connection to be opened with TranslateError so unique violations map
// to gorm.ErrDuplicatedKey.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&User{},
		&Packager{},
		&ImagePost{},
		&PredictedImagePost{},
	)
}

func isDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
