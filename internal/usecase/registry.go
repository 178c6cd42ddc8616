package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/repository"
)

var validate = validator.New()

// AccountStore is the persistence surface the registry needs. Find methods
// return nil without error when no record matches.
type AccountStore interface {
	FindUserByEmail(ctx context.Context, email string) (*repository.User, error)
	CreateUser(ctx context.Context, user *repository.User) error
	FindPackagerByName(ctx context.Context, name string) (*repository.Packager, error)
	CreatePackager(ctx context.Context, packager *repository.Packager) error
	IncrementPackagerUsage(ctx context.Context, packagerID uint) error
	TopPackagers(ctx context.Context, limit int) ([]repository.Packager, error)
}

// Registry performs find-or-create lookups for users and packagers. Races
// between concurrent creates are settled by the database's unique constraints
// and resolved here with a re-fetch.
type Registry struct {
	accounts AccountStore
	logger   *zap.Logger
}

func NewRegistry(accounts AccountStore, logger *zap.Logger) *Registry {
	return &Registry{
		accounts: accounts,
		logger:   logger.Named("registry"),
	}
}

// NormalizeEmail trims the address and lowercases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// NormalizePackagerName derives the lookup key for a packager: whitespace
// removed entirely, lowercased.
func NormalizePackagerName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), ""))
}

// EnsureUser returns the user for the email, creating one on first sighting.
// A syntactically invalid address fails with ErrInvalidEmail.
func (r *Registry) EnsureUser(ctx context.Context, email string) (*repository.User, error) {
	normalized := NormalizeEmail(email)
	if err := validate.Var(normalized, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	user, err := r.accounts.FindUserByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &repository.User{Email: normalized}
	err = r.accounts.CreateUser(ctx, user)
	if err == nil {
		r.logger.Info("created user", zap.String("email", normalized))
		return user, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		// Another upload created the same user concurrently.
		return r.accounts.FindUserByEmail(ctx, normalized)
	}
	return nil, err
}

// EnsurePackager returns the packager for the raw display name, creating one
// when the normalized name is unseen. An existing packager gets its usage
// counter bumped.
func (r *Registry) EnsurePackager(ctx context.Context, rawName string) (*repository.Packager, error) {
	normalized := NormalizePackagerName(rawName)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackager, rawName)
	}

	packager, err := r.accounts.FindPackagerByName(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if packager != nil {
		if err := r.accounts.IncrementPackagerUsage(ctx, packager.ID); err != nil {
			return nil, err
		}
		packager.UsageCount++
		return packager, nil
	}

	packager = &repository.Packager{
		Name:        normalized,
		DisplayName: strings.TrimSpace(rawName),
		UsageCount:  1,
		Score:       initialScore(),
	}
	err = r.accounts.CreatePackager(ctx, packager)
	if err == nil {
		r.logger.Info("created packager",
			zap.String("name", normalized),
			zap.Float64("score", packager.Score))
		return packager, nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return r.accounts.FindPackagerByName(ctx, normalized)
	}
	return nil, err
}

// initialScore draws the starting score, uniform in [9.0, 10.0] rounded to
// one decimal.
func initialScore() float64 {
	return math.Round((9+rand.Float64())*10) / 10
}
