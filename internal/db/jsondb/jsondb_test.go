package jsondb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usrinfo/internal/db/storage"
	"github.com/patric-chuzhbe/usrinfo/internal/db/storage/storagetest"
	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

var _ storage.Storage = (*JSONDB)(nil)

func Test(t *testing.T) {
	t.Run("The base jsondb package test", func(t *testing.T) {
		testDBFileName := filepath.Join(t.TempDir(), "db_test.json")
		ctx := context.Background()

		theStorage, err := New(testDBFileName)
		require.NoError(t, err)
		require.NotNil(t, theStorage)

		users, err := theStorage.ListUsersWithAdditional(ctx)
		assert.NoError(t, err)
		assert.Empty(t, users)

		additionalID, err := theStorage.CreateAdditional(ctx, &models.Additional{Art: "oleo", Music: "salsa", Cinema: "drama"})
		assert.NoError(t, err, "The `theStorage.CreateAdditional()` should not return error")
		assert.NotEmpty(t, additionalID)

		userID, err := theStorage.CreateUser(ctx, &models.User{
			Email:        "ana@example.com",
			Names:        "Ana Maria",
			LastNames:    "Perez",
			Phone:        "04125551234",
			Address:      "Calle 1",
			AdditionalID: additionalID,
		})
		assert.NoError(t, err, "The `theStorage.CreateUser()` should not return error")
		assert.NotEmpty(t, userID)

		secondAdditionalID, err := theStorage.CreateAdditional(ctx, &models.Additional{Art: "x", Music: "y", Cinema: "z"})
		require.NoError(t, err)
		_, err = theStorage.CreateUser(ctx, &models.User{Email: "bob@example.com", AdditionalID: secondAdditionalID})
		require.NoError(t, err)

		usr, found, err := theStorage.FindUserByEmail(ctx, "ana@example.com")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, userID, usr.ID)
		assert.Equal(t, additionalID, usr.AdditionalID)

		_, found, err = theStorage.FindUserByEmail(ctx, "ANA@example.com")
		assert.NoError(t, err)
		assert.False(t, found, "FindUserByEmail matches the stored value exactly")

		users, err = theStorage.ListUsersWithAdditional(ctx)
		assert.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "ana@example.com", users[0].Email, "users are listed in insertion order")
		require.NotNil(t, users[0].Additional)
		assert.Equal(t, "salsa", users[0].Additional.Music)
		assert.Equal(t, additionalID, users[0].Additional.ID)

		usr.Names = "Ana"
		usr.Email = "changed@example.com"
		err = theStorage.UpdateUser(ctx, usr)
		assert.NoError(t, err)
		usr, _, err = theStorage.FindUserByEmail(ctx, "ana@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "Ana", usr.Names)

		err = theStorage.UpdateAdditional(ctx, &models.Additional{ID: additionalID, Art: "acuarela", Music: "salsa", Cinema: "drama"})
		assert.NoError(t, err)
		additional, found, err := theStorage.GetAdditionalByID(ctx, additionalID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "acuarela", additional.Art)

		err = theStorage.UpdateAdditional(ctx, &models.Additional{ID: "missing"})
		assert.Error(t, err)

		err = theStorage.Close()
		assert.NoError(t, err, "The jsondb.Close() should not return error")

		reopened, err := New(testDBFileName)
		require.NoError(t, err)
		count, err := reopened.GetNumberOfUsers(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count, "Close() should persist the cache")

		err = reopened.DeleteAdditional(ctx, additionalID)
		assert.NoError(t, err)
		err = reopened.DeleteUser(ctx, userID)
		assert.NoError(t, err)
		err = reopened.DeleteUser(ctx, userID)
		assert.NoError(t, err, "deleting a missing user is not an error")

		_, found, err = reopened.GetAdditionalByID(ctx, additionalID)
		assert.NoError(t, err)
		assert.False(t, found)

		additionals, err := reopened.ListAdditionals(ctx)
		assert.NoError(t, err)
		assert.Len(t, additionals, 1)

		assert.NoError(t, reopened.Ping(ctx))
	})
}

func TestNewRejectsCorruptFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(fileName, []byte("{not json"), 0644))

	_, err := New(fileName)
	assert.Error(t, err)
}

func TestJSONDBContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		theStorage, err := New(filepath.Join(t.TempDir(), "db_contract.json"))
		require.NoError(t, err)
		return theStorage
	})
}
