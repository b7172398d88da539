//go:build integration

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/patric-chuzhbe/usrinfo/internal/db/storage"
	"github.com/patric-chuzhbe/usrinfo/internal/db/storage/storagetest"
)

var _ storage.Storage = (*MongoDB)(nil)

func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongodb container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongodb connection string: %v", err)
	}

	return uri
}

func TestMongoDB(t *testing.T) {
	uri := startMongo(t)

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		db, err := New(context.Background(), uri, "usrinfo_test", 10*time.Second)
		require.NoError(t, err)
		require.NoError(t, db.Drop(context.Background()))
		t.Cleanup(func() {
			require.NoError(t, db.Close())
		})
		return db
	})
}

func TestInvalidIDsAreNotFound(t *testing.T) {
	uri := startMongo(t)

	db, err := New(context.Background(), uri, "usrinfo_ids", 10*time.Second)
	require.NoError(t, err)
	defer db.Close()

	_, found, err := db.GetAdditionalByID(context.Background(), "not-an-object-id")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.DeleteUser(context.Background(), "not-an-object-id"))
}
