package watchlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type addRequest struct {
	UserID    string `json:"userId"`
	MovieID   string `json:"movieId"`
	MovieName string `json:"movieName"`
	Poster    string `json:"poster"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body addRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.UserID = strings.TrimSpace(body.UserID)
	body.MovieID = strings.TrimSpace(body.MovieID)
	if body.UserID == "" || body.MovieID == "" {
		writeError(w, http.StatusBadRequest, "userId and movieId are required")
		return
	}

	item, err := h.store.Add(r.Context(), Item{
		UserID:    body.UserID,
		MovieID:   body.MovieID,
		MovieName: strings.TrimSpace(body.MovieName),
		Poster:    strings.TrimSpace(body.Poster),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyListed) {
			writeError(w, http.StatusConflict, "movie already on watchlist")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to add to watchlist")
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list watchlist")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	movieID := r.PathValue("movieId")

	if err := h.store.Remove(r.Context(), userID, movieID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "watchlist item not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to remove from watchlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from watchlist"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
