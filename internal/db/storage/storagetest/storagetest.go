// Package storagetest holds the behaviour every storage backend must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usrinfo/internal/db/storage"
	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

// Run exercises a backend. newStorage must return an empty storage; Run does not close it.
func Run(t *testing.T, newStorage func(t *testing.T) storage.Storage) {
	t.Helper()

	t.Run("empty storage", func(t *testing.T) {
		theStorage := newStorage(t)
		ctx := context.Background()

		users, err := theStorage.ListUsersWithAdditional(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		additionals, err := theStorage.ListAdditionals(ctx)
		require.NoError(t, err)
		assert.Empty(t, additionals)

		_, found, err := theStorage.FindUserByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, theStorage.Ping(ctx))
	})

	t.Run("create, populate, update, delete", func(t *testing.T) {
		theStorage := newStorage(t)
		ctx := context.Background()

		additionalID, err := theStorage.CreateAdditional(ctx, &models.Additional{Art: "oleo", Music: "salsa", Cinema: "drama"})
		require.NoError(t, err)
		require.NotEmpty(t, additionalID)

		userID, err := theStorage.CreateUser(ctx, &models.User{
			Email:        "ana@example.com",
			Names:        "Ana Maria",
			LastNames:    "Perez",
			Phone:        "04125551234",
			Address:      "Calle 1",
			AdditionalID: additionalID,
		})
		require.NoError(t, err)
		require.NotEmpty(t, userID)

		usr, found, err := theStorage.FindUserByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, userID, usr.ID)
		assert.Equal(t, additionalID, usr.AdditionalID)
		assert.Equal(t, "Ana Maria", usr.Names)

		users, err := theStorage.ListUsersWithAdditional(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.NotNil(t, users[0].Additional)
		assert.Equal(t, models.Additional{ID: additionalID, Art: "oleo", Music: "salsa", Cinema: "drama"}, *users[0].Additional)

		usr.Phone = "+584129999999"
		require.NoError(t, theStorage.UpdateUser(ctx, usr))
		require.NoError(t, theStorage.UpdateAdditional(ctx, &models.Additional{ID: additionalID, Art: "oleo", Music: "jazz", Cinema: "drama"}))

		usr, _, err = theStorage.FindUserByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, "+584129999999", usr.Phone)

		additional, found, err := theStorage.GetAdditionalByID(ctx, additionalID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "jazz", additional.Music)

		count, err := theStorage.GetNumberOfUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		count, err = theStorage.GetNumberOfAdditionals(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		require.NoError(t, theStorage.DeleteAdditional(ctx, additionalID))
		require.NoError(t, theStorage.DeleteUser(ctx, userID))

		_, found, err = theStorage.FindUserByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = theStorage.GetAdditionalByID(ctx, additionalID)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, theStorage.DeleteAdditional(ctx, additionalID), "deleting twice is not an error")
		require.NoError(t, theStorage.DeleteUser(ctx, userID), "deleting twice is not an error")
	})

	t.Run("dangling reference is listed with a nil additional", func(t *testing.T) {
		theStorage := newStorage(t)
		ctx := context.Background()

		additionalID, err := theStorage.CreateAdditional(ctx, &models.Additional{Art: "a", Music: "b", Cinema: "c"})
		require.NoError(t, err)
		_, err = theStorage.CreateUser(ctx, &models.User{Email: "orphan@example.com", AdditionalID: additionalID})
		require.NoError(t, err)
		require.NoError(t, theStorage.DeleteAdditional(ctx, additionalID))

		users, err := theStorage.ListUsersWithAdditional(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Nil(t, users[0].Additional)
	})

	t.Run("insertion order", func(t *testing.T) {
		theStorage := newStorage(t)
		ctx := context.Background()

		emails := []string{"a@example.com", "b@example.com", "c@example.com"}
		for _, email := range emails {
			additionalID, err := theStorage.CreateAdditional(ctx, &models.Additional{Art: email})
			require.NoError(t, err)
			_, err = theStorage.CreateUser(ctx, &models.User{Email: email, AdditionalID: additionalID})
			require.NoError(t, err)
		}

		users, err := theStorage.ListUsersWithAdditional(ctx)
		require.NoError(t, err)
		require.Len(t, users, len(emails))
		for i, email := range emails {
			assert.Equal(t, email, users[i].Email)
			require.NotNil(t, users[i].Additional)
			assert.Equal(t, email, users[i].Additional.Art)
		}

		additionals, err := theStorage.ListAdditionals(ctx)
		require.NoError(t, err)
		require.Len(t, additionals, len(emails))
		assert.Equal(t, "a@example.com", additionals[0].Art)
	})
}
