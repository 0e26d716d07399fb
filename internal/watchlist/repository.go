package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("watchlist item not found")
	ErrAlreadyListed = errors.New("movie already on watchlist")
)

const uniqueViolation = "23505"

type Store interface {
	Add(ctx context.Context, item Item) (Item, error)
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	Remove(ctx context.Context, userID, movieID string) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, item Item) (Item, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Item{}, fmt.Errorf("generate watchlist id: %w", err)
	}

	item.ID = id.String()
	item.DateAdded = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO watchlist_items (id, user_id, movie_id, movie_name, poster, date_added)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`, item.ID, item.UserID, item.MovieID, item.MovieName, item.Poster, item.DateAdded)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Item{}, ErrAlreadyListed
		}
		return Item{}, fmt.Errorf("insert watchlist item: %w", err)
	}

	return item, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, movie_id, COALESCE(movie_name, ''), COALESCE(poster, ''), date_added
		FROM watchlist_items
		WHERE user_id = $1
		ORDER BY date_added DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.MovieID, &item.MovieName, &item.Poster, &item.DateAdded); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}

	return items, nil
}

func (r *Repository) Remove(ctx context.Context, userID, movieID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM watchlist_items
		WHERE user_id = $1 AND movie_id = $2
	`, userID, movieID)
	if err != nil {
		return fmt.Errorf("delete watchlist item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
