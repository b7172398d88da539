// Package mockstorage provides a testify-based mock implementation
// of the storage interfaces used by the service and router packages.
// It is used for unit testing the orchestration and HTTP handlers by
// simulating storage behavior, including failures no real backend produces on demand.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

// StorageMock is a testify mock that implements storage.Storage.
type StorageMock struct {
	mock.Mock

	// OnGetNumberOfUsers is an optional function field that can be assigned
	// to define custom mock behavior for GetNumberOfUsers in tests.
	//
	// If set, GetNumberOfUsers will delegate to this function instead of
	// returning zero.
	OnGetNumberOfUsers func(ctx context.Context) (int64, error)

	// OnGetNumberOfAdditionals works like OnGetNumberOfUsers for GetNumberOfAdditionals.
	OnGetNumberOfAdditionals func(ctx context.Context) (int64, error)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// CreateAdditional mocks storing an additional record and returns a generated ID.
func (m *StorageMock) CreateAdditional(ctx context.Context, additional *models.Additional) (string, error) {
	args := m.Called(ctx, additional)
	return args.String(0), args.Error(1)
}

// GetAdditionalByID mocks fetching an additional record.
func (m *StorageMock) GetAdditionalByID(ctx context.Context, additionalID string) (*models.Additional, bool, error) {
	args := m.Called(ctx, additionalID)
	additional, _ := args.Get(0).(*models.Additional)
	return additional, args.Bool(1), args.Error(2)
}

// ListAdditionals mocks listing every additional record.
func (m *StorageMock) ListAdditionals(ctx context.Context) ([]models.Additional, error) {
	args := m.Called(ctx)
	additionals, _ := args.Get(0).([]models.Additional)
	return additionals, args.Error(1)
}

// UpdateAdditional mocks overwriting an additional record.
func (m *StorageMock) UpdateAdditional(ctx context.Context, additional *models.Additional) error {
	args := m.Called(ctx, additional)
	return args.Error(0)
}

// DeleteAdditional mocks removing an additional record.
func (m *StorageMock) DeleteAdditional(ctx context.Context, additionalID string) error {
	args := m.Called(ctx, additionalID)
	return args.Error(0)
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

// FindUserByEmail mocks the lookup of a user by email.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

// ListUsersWithAdditional mocks listing the users with their additional records.
func (m *StorageMock) ListUsersWithAdditional(ctx context.Context) ([]models.UserWithAdditional, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.UserWithAdditional)
	return users, args.Error(1)
}

// UpdateUser mocks overwriting a user.
func (m *StorageMock) UpdateUser(ctx context.Context, usr *models.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// DeleteUser mocks removing a user.
func (m *StorageMock) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// GetNumberOfUsers returns the number of users as defined by the mock.
//
// If OnGetNumberOfUsers is non-nil, it will be called to produce the result.
// Otherwise, the method returns 0 and no error by default.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfUsers != nil {
		return m.OnGetNumberOfUsers(ctx)
	}
	return 0, nil
}

// GetNumberOfAdditionals returns the number of additional records as defined by the mock.
func (m *StorageMock) GetNumberOfAdditionals(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfAdditionals != nil {
		return m.OnGetNumberOfAdditionals(ctx)
	}
	return 0, nil
}
