package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("review not found")

type Store interface {
	Create(ctx context.Context, rev Review) (Review, error)
	ListByMovie(ctx context.Context, movieID string) ([]Review, error)
	ListByUser(ctx context.Context, userID string) ([]Review, error)
	GetByID(ctx context.Context, id string) (Review, error)
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rev Review) (Review, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Review{}, fmt.Errorf("generate review id: %w", err)
	}

	rev.ID = id.String()
	rev.CreatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, user_name, user_picture, movie_id, movie_name, movie_image, rating, review_title, review_text, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9, NULLIF($10, ''), $11)
	`, rev.ID, rev.UserID, rev.UserName, rev.UserPicture, rev.MovieID, rev.MovieName, rev.MovieImage, rev.Rating, rev.Title, rev.Text, rev.CreatedAt)
	if err != nil {
		return Review{}, fmt.Errorf("insert review: %w", err)
	}

	return rev, nil
}

func (r *Repository) ListByMovie(ctx context.Context, movieID string) ([]Review, error) {
	return r.list(ctx, `movie_id = $1`, movieID)
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Review, error) {
	return r.list(ctx, `user_id = $1`, userID)
}

func (r *Repository) list(ctx context.Context, where string, arg any) ([]Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, user_name, COALESCE(user_picture, ''), movie_id, movie_name, COALESCE(movie_image, ''), rating, review_title, COALESCE(review_text, ''), created_at
		FROM reviews
		WHERE `+where+`
		ORDER BY created_at DESC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.UserName, &rev.UserPicture, &rev.MovieID, &rev.MovieName, &rev.MovieImage, &rev.Rating, &rev.Title, &rev.Text, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Review, error) {
	var rev Review
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_name, COALESCE(user_picture, ''), movie_id, movie_name, COALESCE(movie_image, ''), rating, review_title, COALESCE(review_text, ''), created_at
		FROM reviews
		WHERE id = $1
	`, id).Scan(&rev.ID, &rev.UserID, &rev.UserName, &rev.UserPicture, &rev.MovieID, &rev.MovieName, &rev.MovieImage, &rev.Rating, &rev.Title, &rev.Text, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("query review: %w", err)
	}

	return rev, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
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
