package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, first_name, last_name, phone, email, password_hash, created_at, last_logged_in_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var lastLogin sql.NullTime
	if user.LastLoggedInAt != nil {
		lastLogin = sql.NullTime{Time: *user.LastLoggedInAt, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		nullableString(user.FirstName),
		nullableString(user.LastName),
		nullableString(user.Phone),
		nullableString(user.Email),
		user.PasswordHash,
		user.CreatedAt,
		lastLogin,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

const selectUser = `
SELECT id, first_name, last_name, phone, email, password_hash, created_at, last_logged_in_at
FROM users`

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, selectUser+`
WHERE id = $1
LIMIT 1`, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, selectUser+`
WHERE email = $1
ORDER BY created_at ASC
LIMIT 1`, email))
}

func (r *PGRepo) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET last_logged_in_at = $1 WHERE id = $2`, at, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var firstName, lastName, phone, email sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&firstName,
		&lastName,
		&phone,
		&email,
		&user.PasswordHash,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Phone = phone.String
	user.Email = email.String
	if lastLogin.Valid {
		user.LastLoggedInAt = &lastLogin.Time
	}
	return user, nil
}

func nullableString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
