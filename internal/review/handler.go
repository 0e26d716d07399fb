package review

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/adithyakrishnapn/moviereview/internal/auth"
	"github.com/adithyakrishnapn/moviereview/internal/user"
)

const maxJSONBodyBytes = 1 << 20

// ProfileSource resolves the author's stored profile at create time; session
// claims carry no picture.
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Handler struct {
	store    Store
	profiles ProfileSource
}

func NewHandler(store Store, profiles ProfileSource) *Handler {
	return &Handler{store: store, profiles: profiles}
}

// Create runs behind the authorization gate; the review's author fields are
// filled from the verified claims.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no token, authorization denied")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input Input
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	input.MovieID = strings.TrimSpace(input.MovieID)
	input.MovieName = strings.TrimSpace(input.MovieName)
	input.Title = strings.TrimSpace(input.Title)
	if input.MovieID == "" || input.MovieName == "" || input.Title == "" {
		writeError(w, http.StatusBadRequest, "movie, movieName and reviewTitle are required")
		return
	}
	if input.Rating < 1 || input.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	var picture string
	author, err := h.profiles.GetByID(r.Context(), claims.UserID)
	switch {
	case err == nil:
		picture = author.Picture
	case errors.Is(err, user.ErrNotFound):
		// account removed after the token was minted; the claims are
		// still trusted, the review just carries no avatar
	default:
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to add review")
		return
	}

	rev, err := h.store.Create(r.Context(), Review{
		UserID:      claims.UserID,
		UserName:    claims.Username,
		UserPicture: picture,
		MovieID:     input.MovieID,
		MovieName:   input.MovieName,
		MovieImage:  strings.TrimSpace(input.MovieImage),
		Rating:      input.Rating,
		Title:       input.Title,
		Text:        strings.TrimSpace(input.Text),
	})
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to add review")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Review added successfully",
		"review":  rev,
	})
}

func (h *Handler) ListByMovie(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListByMovie(r.Context(), r.PathValue("movieId"))
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

// Delete runs behind the authorization gate and only lets the author remove
// their own review.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no token, authorization denied")
		return
	}

	id := r.PathValue("reviewId")
	rev, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	if rev.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "not your review")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted successfully"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
