package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
)

// defaultQuery keeps the landing page populated before the user searches.
const defaultQuery = "avengers"

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("s"))
	if query == "" {
		query = defaultQuery
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive number")
			return
		}
		page = parsed
	}

	payload, err := h.client.Search(r.Context(), query, page)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusBadGateway, "failed to fetch movies")
		return
	}

	writeRaw(w, payload)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "movie id is required")
		return
	}

	payload, err := h.client.ByID(r.Context(), id)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusBadGateway, "failed to fetch movie details")
		return
	}

	writeRaw(w, payload)
}

func writeRaw(w http.ResponseWriter, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
