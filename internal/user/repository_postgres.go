package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	createTableQuery = `
		CREATE TABLE IF NOT EXISTS user_records (
			email TEXT PRIMARY KEY,
			"firstName" TEXT NOT NULL,
			"lastName" TEXT NOT NULL,
			"birthDate" DATE NOT NULL,
			address TEXT,
			"phoneNumber" TEXT
		)
	`
	existsUserQuery = `SELECT EXISTS (SELECT 1 FROM user_records WHERE email = $1)`
	getUserQuery    = `
		SELECT email, "firstName", "lastName", "birthDate", address, "phoneNumber"
		FROM user_records
		WHERE email = $1
	`
	listUsersQuery = `
		SELECT email, "firstName", "lastName", "birthDate", address, "phoneNumber"
		FROM user_records
	`
	upsertUserQuery = `
		INSERT INTO user_records (email, "firstName", "lastName", "birthDate", address, "phoneNumber")
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET "firstName" = EXCLUDED."firstName",
			"lastName" = EXCLUDED."lastName",
			"birthDate" = EXCLUDED."birthDate",
			address = EXCLUDED.address,
			"phoneNumber" = EXCLUDED."phoneNumber"
	`
	deleteUserQuery = `DELETE FROM user_records WHERE email = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the user_records table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("create user_records table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Contains(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsUserQuery, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user %s: %w", email, err)
	}
	return exists, nil
}

// Put stores user under email. The email column is the key, so a user whose
// own email differs from the key is stored with the key.
func (r *PostgresRepository) Put(ctx context.Context, email string, user User) error {
	if _, err := r.db.ExecContext(ctx, upsertUserQuery, upsertArgs(email, user)...); err != nil {
		return fmt.Errorf("put user %s: %w", email, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, getUserQuery, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return user, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, deleteUserQuery, email); err != nil {
		return fmt.Errorf("remove user %s: %w", email, err)
	}
	return nil
}

// Move re-keys a record inside one transaction, so a failed delete leaves
// the store unchanged.
func (r *PostgresRepository) Move(ctx context.Context, from string, user User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move user %s: %w", from, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertUserQuery, upsertArgs(user.Email, user)...); err != nil {
		return fmt.Errorf("put user %s: %w", user.Email, err)
	}
	if _, err := tx.ExecContext(ctx, deleteUserQuery, from); err != nil {
		return fmt.Errorf("remove user %s: %w", from, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit move user %s: %w", from, err)
	}
	return nil
}

func (r *PostgresRepository) Values(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func scanUser(scanner rowScanner) (User, error) {
	var (
		user        User
		address     sql.NullString
		phoneNumber sql.NullString
	)
	if err := scanner.Scan(&user.Email, &user.FirstName, &user.LastName, &user.BirthDate, &address, &phoneNumber); err != nil {
		return User{}, err
	}
	user.Address = address.String
	user.PhoneNumber = phoneNumber.String
	return user, nil
}

func upsertArgs(email string, user User) []any {
	return []any{
		email,
		user.FirstName,
		user.LastName,
		user.BirthDate,
		nullString(user.Address),
		nullString(user.PhoneNumber),
	}
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
