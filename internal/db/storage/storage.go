// Package storage declares the contract every persistence backend fulfils.
// Lookups follow the (value, found, err) convention: a missing record is not an error.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

// AdditionalKeeper persists Additional records.
type AdditionalKeeper interface {
	CreateAdditional(ctx context.Context, additional *models.Additional) (string, error)

	GetAdditionalByID(ctx context.Context, additionalID string) (*models.Additional, bool, error)

	ListAdditionals(ctx context.Context) ([]models.Additional, error)

	UpdateAdditional(ctx context.Context, additional *models.Additional) error

	// DeleteAdditional succeeds when the record is already gone.
	DeleteAdditional(ctx context.Context, additionalID string) error

	GetNumberOfAdditionals(ctx context.Context) (int64, error)
}

// UserKeeper persists User records.
type UserKeeper interface {
	CreateUser(ctx context.Context, usr *models.User) (string, error)

	FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error)

	// ListUsersWithAdditional returns every user with its Additional record
	// resolved, in insertion order.
	ListUsersWithAdditional(ctx context.Context) ([]models.UserWithAdditional, error)

	UpdateUser(ctx context.Context, usr *models.User) error

	// DeleteUser succeeds when the record is already gone.
	DeleteUser(ctx context.Context, userID string) error

	GetNumberOfUsers(ctx context.Context) (int64, error)
}

// Storage is a complete backend.
type Storage interface {
	AdditionalKeeper
	UserKeeper

	Ping(ctx context.Context) error

	Close() error
}
