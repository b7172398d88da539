// Package postgresdb provides a PostgreSQL-based implementation of the storage interface
// for users and their additional records. The schema is created by goose migrations.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

// PostgresDB is a PostgreSQL-backed storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every public table before migrating. Meant for tests.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New opens the connection, runs the migrations from migrationsDir and
// returns a ready PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `sql.Open()` calling: %w", err)
	}

	return newWithDB(ctx, database, connectionTimeout, migrationsDir, options)
}

// newWithDB takes ownership of database: it is closed when preparing fails.
func newWithDB(
	ctx context.Context,
	database *sql.DB,
	connectionTimeout time.Duration,
	migrationsDir string,
	options *initOptions,
) (*PostgresDB, error) {
	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.prepare(ctx, migrationsDir, options); err != nil {
		_ = database.Close()
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) prepare(ctx context.Context, migrationsDir string, options *initOptions) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `db.Ping()` calling: %w", err)
	}

	if options.DBPreReset {
		if err := db.resetDB(ctx); err != nil {
			return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `db.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.UpContext(ctx, db.database, migrationsDir); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w", err)
	}

	return nil
}

// parseID reports whether id can name a row at all.
func parseID(id string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(id)
	return parsed, err == nil
}

// CreateAdditional inserts a record and returns its generated id.
func (db *PostgresDB) CreateAdditional(ctx context.Context, additional *models.Additional) (string, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO additionals (arte, musica, cine) VALUES ($1, $2, $3) RETURNING id`,
		additional.Art,
		additional.Music,
		additional.Cinema,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("in internal/db/postgresdb/postgresdb.go/CreateAdditional(): error while `row.Scan()` calling: %w", err)
	}

	return id, nil
}

// GetAdditionalByID fetches one additional record.
func (db *PostgresDB) GetAdditionalByID(ctx context.Context, additionalID string) (*models.Additional, bool, error) {
	id, ok := parseID(additionalID)
	if !ok {
		return nil, false, nil
	}

	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, arte, musica, cine FROM additionals WHERE id = $1`,
		id,
	)
	var additional models.Additional
	err := row.Scan(&additional.ID, &additional.Art, &additional.Music, &additional.Cinema)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/GetAdditionalByID(): error while `row.Scan()` calling: %w", err)
	}

	return &additional, true, nil
}

// ListAdditionals returns every additional record in insertion order.
func (db *PostgresDB) ListAdditionals(ctx context.Context) ([]models.Additional, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, arte, musica, cine FROM additionals ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/ListAdditionals(): error while `db.database.QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.Additional{}
	for rows.Next() {
		var additional models.Additional
		if err := rows.Scan(&additional.ID, &additional.Art, &additional.Music, &additional.Cinema); err != nil {
			return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/ListAdditionals(): error while `rows.Scan()` calling: %w", err)
		}
		result = append(result, additional)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/ListAdditionals(): error while `rows.Err()` calling: %w", err)
	}

	return result, nil
}

// UpdateAdditional overwrites the three category fields.
func (db *PostgresDB) UpdateAdditional(ctx context.Context, additional *models.Additional) error {
	id, ok := parseID(additional.ID)
	if !ok {
		return fmt.Errorf("no row with id %q in additionals", additional.ID)
	}

	res, err := db.database.ExecContext(
		ctx,
		`UPDATE additionals SET arte = $2, musica = $3, cine = $4 WHERE id = $1`,
		id,
		additional.Art,
		additional.Music,
		additional.Cinema,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/UpdateAdditional(): error while `db.database.ExecContext()` calling: %w", err)
	}

	return expectOneRow(res, "additionals", additional.ID)
}

// DeleteAdditional removes a record; a missing one is not an error.
func (db *PostgresDB) DeleteAdditional(ctx context.Context, additionalID string) error {
	id, ok := parseID(additionalID)
	if !ok {
		return nil
	}

	if _, err := db.database.ExecContext(ctx, `DELETE FROM additionals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/DeleteAdditional(): error while `db.database.ExecContext()` calling: %w", err)
	}

	return nil
}

// GetNumberOfAdditionals counts the additional records.
func (db *PostgresDB) GetNumberOfAdditionals(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM additionals`)
}

// CreateUser inserts a user and returns its generated id.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO users (email, nombres, apellidos, telefono, direccion, additional_id)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
		`,
		usr.Email,
		usr.Names,
		usr.LastNames,
		usr.Phone,
		usr.Address,
		usr.AdditionalID,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("in internal/db/postgresdb/postgresdb.go/CreateUser(): error while `row.Scan()` calling: %w", err)
	}

	return id, nil
}

// FindUserByEmail returns the earliest registered user with that exact email.
func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, email, nombres, apellidos, telefono, direccion, additional_id
				FROM users
				WHERE email = $1
				ORDER BY seq
				LIMIT 1
		`,
		email,
	)
	var usr models.User
	err := row.Scan(&usr.ID, &usr.Email, &usr.Names, &usr.LastNames, &usr.Phone, &usr.Address, &usr.AdditionalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/FindUserByEmail(): error while `row.Scan()` calling: %w", err)
	}

	return &usr, true, nil
}

// ListUsersWithAdditional joins every user with its additional record.
func (db *PostgresDB) ListUsersWithAdditional(ctx context.Context) ([]models.UserWithAdditional, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT users.id, users.email, users.nombres, users.apellidos, users.telefono,
					users.direccion, users.additional_id,
					additionals.id, additionals.arte, additionals.musica, additionals.cine
				FROM users
					LEFT JOIN additionals ON additionals.id = users.additional_id
				ORDER BY users.seq
		`,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/ListUsersWithAdditional(): error while `db.database.QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.UserWithAdditional{}
	for rows.Next() {
		var item models.UserWithAdditional
		var additionalID, art, music, cinema sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.Email,
			&item.Names,
			&item.LastNames,
			&item.Phone,
			&item.Address,
			&item.AdditionalID,
			&additionalID,
			&art,
			&music,
			&cinema,
		)
		if err != nil {
			return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/ListUsersWithAdditional(): error while `rows.Scan()` calling: %w", err)
		}

		if additionalID.Valid {
			item.Additional = &models.Additional{
				ID:     additionalID.String,
				Art:    art.String,
				Music:  music.String,
				Cinema: cinema.String,
			}
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/ListUsersWithAdditional(): error while `rows.Err()` calling: %w", err)
	}

	return result, nil
}

// UpdateUser overwrites the mutable contact fields. Email and the
// additional reference are never changed.
func (db *PostgresDB) UpdateUser(ctx context.Context, usr *models.User) error {
	id, ok := parseID(usr.ID)
	if !ok {
		return fmt.Errorf("no row with id %q in users", usr.ID)
	}

	res, err := db.database.ExecContext(
		ctx,
		`
			UPDATE users
				SET nombres = $2, apellidos = $3, telefono = $4, direccion = $5
				WHERE id = $1
		`,
		id,
		usr.Names,
		usr.LastNames,
		usr.Phone,
		usr.Address,
	)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/UpdateUser(): error while `db.database.ExecContext()` calling: %w", err)
	}

	return expectOneRow(res, "users", usr.ID)
}

// DeleteUser removes a user; a missing one is not an error.
func (db *PostgresDB) DeleteUser(ctx context.Context, userID string) error {
	id, ok := parseID(userID)
	if !ok {
		return nil
	}

	if _, err := db.database.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/DeleteUser(): error while `db.database.ExecContext()` calling: %w", err)
	}

	return nil
}

// GetNumberOfUsers counts the users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM users`)
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) count(ctx context.Context, query string) (int64, error) {
	var result int64
	if err := db.database.QueryRowContext(ctx, query).Scan(&result); err != nil {
		return 0, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/count(): error while `db.database.QueryRowContext().Scan()` calling: %w", err)
	}

	return result, nil
}

func expectOneRow(res sql.Result, table, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/expectOneRow(): error while `res.RowsAffected()` calling: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no row with id %q in %s", id, table)
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
