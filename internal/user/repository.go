package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("user not found")
)

const uniqueViolation = "23505"

// Store is what the service needs from the credential store.
type Store interface {
	Create(ctx context.Context, u User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, id, username, email, picture string) (User, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the user and leans on the unique index over email to settle
// concurrent signups: the loser gets ErrDuplicateEmail, never a second row.
func (r *Repository) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, picture, join_date)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Picture, u.JoinDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, COALESCE(picture, ''), join_date
		FROM users
		WHERE email = $1
	`, email))
}

func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, COALESCE(picture, ''), join_date
		FROM users
		WHERE id = $1
	`, id))
}

func (r *Repository) Update(ctx context.Context, id, username, email, picture string) (User, error) {
	u, err := r.scanOne(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, picture = COALESCE(NULLIF($4, ''), picture)
		WHERE id = $1
		RETURNING id, username, email, password_hash, COALESCE(picture, ''), join_date
	`, id, username, email, picture))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}

	return u, nil
}

func (r *Repository) scanOne(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Picture, &u.JoinDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}

	return u, nil
}
