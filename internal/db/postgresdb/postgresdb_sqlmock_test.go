package postgresdb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

func newSQLMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	return &PostgresDB{database: database, connectionTimeout: time.Second}, mock
}

func TestNewClosesDatabaseWhenPingFails(t *testing.T) {
	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	_, err = newWithDB(context.Background(), database, time.Second, "migrations", &initOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while `db.Ping()` calling")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewClosesDatabaseWhenMigrationsFail(t *testing.T) {
	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	_, err = newWithDB(context.Background(), database, time.Second, t.TempDir()+"/absent", &initOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while `goose.UpContext()` calling")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupsByMalformedIDSkipTheDatabase(t *testing.T) {
	db, mock := newSQLMockDB(t)
	ctx := context.Background()

	additional, found, err := db.GetAdditionalByID(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, additional)

	assert.NoError(t, db.DeleteAdditional(ctx, "not-a-uuid"))
	assert.NoError(t, db.DeleteUser(ctx, "not-a-uuid"))
	assert.Error(t, db.UpdateAdditional(ctx, &models.Additional{ID: "not-a-uuid"}))
	assert.Error(t, db.UpdateUser(ctx, &models.User{ID: "not-a-uuid"}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAdditionalByIDComparesUUIDs(t *testing.T) {
	db, mock := newSQLMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, arte, musica, cine FROM additionals WHERE id = $1`)).
		WithArgs(id.String()).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "arte", "musica", "cine"}).
				AddRow(id.String(), "oleo", "salsa", "drama"),
		)

	additional, found, err := db.GetAdditionalByID(context.Background(), id.String())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, &models.Additional{ID: id.String(), Art: "oleo", Music: "salsa", Cinema: "drama"}, additional)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserWrapsDriverErrors(t *testing.T) {
	db, mock := newSQLMockDB(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(id.String()).
		WillReturnError(errors.New("connection reset"))

	err := db.DeleteUser(context.Background(), id.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in internal/db/postgresdb/postgresdb.go/DeleteUser(): error while")
	assert.NoError(t, mock.ExpectationsWereMet())
}
