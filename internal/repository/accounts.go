package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountRepository persists users and packagers. Uniqueness of the email and
// the normalized packager name is enforced by the database; concurrent
// find-or-create races surface here as ErrDuplicate and are resolved by the
// caller with a re-fetch.
type AccountRepository struct {
	db *gorm.DB
	retrier
}

func NewAccountRepository(db *gorm.DB, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:      db,
		retrier: newRetrier(logger.Named("account_repository")),
	}
}

// FindUserByEmail returns the user for the normalized email, or nil when no
// such user exists.
func (r *AccountRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var users []User
	err := r.executeWithRetry(ctx, "accounts.find_user", "", func() error {
		return r.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// CreateUser inserts a new user. A concurrent insert of the same email
// returns ErrDuplicate.
func (r *AccountRepository) CreateUser(ctx context.Context, user *User) error {
	return r.executeWithRetry(ctx, "accounts.create_user", "", func() error {
		return translateDuplicate(r.db.WithContext(ctx).Create(user).Error)
	})
}

// FindPackagerByName looks a packager up by its normalized name, returning
// nil when absent.
func (r *AccountRepository) FindPackagerByName(ctx context.Context, name string) (*Packager, error) {
	var packagers []Packager
	err := r.executeWithRetry(ctx, "accounts.find_packager", "", func() error {
		return r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&packagers).Error
	})
	if err != nil {
		return nil, err
	}
	if len(packagers) == 0 {
		return nil, nil
	}
	return &packagers[0], nil
}

// CreatePackager inserts a new packager, ErrDuplicate on a name collision.
func (r *AccountRepository) CreatePackager(ctx context.Context, packager *Packager) error {
	return r.executeWithRetry(ctx, "accounts.create_packager", "", func() error {
		return translateDuplicate(r.db.WithContext(ctx).Create(packager).Error)
	})
}

// IncrementPackagerUsage bumps the usage counter for an existing packager.
func (r *AccountRepository) IncrementPackagerUsage(ctx context.Context, packagerID uint) error {
	return r.executeWithRetry(ctx, "accounts.increment_packager_usage", "", func() error {
		return r.db.WithContext(ctx).
			Model(&Packager{}).
			Where("id = ?", packagerID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
	})
}

// TopPackagers returns up to limit packagers ordered by usage, most used
// first.
func (r *AccountRepository) TopPackagers(ctx context.Context, limit int) ([]Packager, error) {
	var packagers []Packager
	err := r.executeWithRetry(ctx, "accounts.top_packagers", "", func() error {
		return r.db.WithContext(ctx).
			Order("usage_count DESC, id ASC").
			Limit(limit).
			Find(&packagers).Error
	})
	if err != nil {
		return nil, err
	}
	return packagers, nil
}

func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
