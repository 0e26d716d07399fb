package watchlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

type memWatchlist struct {
	items map[string]Item
	next  int
}

func newMemWatchlist() *memWatchlist {
	return &memWatchlist{items: map[string]Item{}}
}

func (m *memWatchlist) Add(ctx context.Context, item Item) (Item, error) {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.MovieID == item.MovieID {
			return Item{}, ErrAlreadyListed
		}
	}
	m.next++
	item.ID = "wl-" + strconv.Itoa(m.next)
	item.DateAdded = time.Now().UTC()
	m.items[item.ID] = item
	return item, nil
}

func (m *memWatchlist) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	out := make([]Item, 0)
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memWatchlist) Remove(ctx context.Context, userID, movieID string) error {
	for id, item := range m.items {
		if item.UserID == userID && item.MovieID == movieID {
			delete(m.items, id)
			return nil
		}
	}
	return ErrNotFound
}

func newTestServer() (http.Handler, *memWatchlist) {
	store := newMemWatchlist()
	h := NewHandler(store)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /watchlist", h.Add)
	mux.HandleFunc("GET /watchlist/{userId}", h.List)
	mux.HandleFunc("DELETE /watchlist/{userId}/{movieId}", h.Remove)
	return mux, store
}

func TestAdd(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer()
	body := `{"userId":"u1","movieId":"tt1","movieName":"M","poster":"p.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("code %d: %s", w.Code, w.Body.String())
	}
	if len(store.items) != 1 {
		t.Fatalf("expected one item, got %d", len(store.items))
	}
}

func TestAdd_Duplicate(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()
	body := `{"userId":"u1","movieId":"tt1","movieName":"M","poster":""}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("add %d: code %d, want %d", i, w.Code, want)
		}
	}
}

func TestAdd_Validation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(`{"userId":"","movieId":""}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("code %d, want 400", w.Code)
	}
}

func TestListAndRemove(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer()
	store.Add(context.Background(), Item{UserID: "u1", MovieID: "tt1", MovieName: "M"})
	store.Add(context.Background(), Item{UserID: "u2", MovieID: "tt2"})

	req := httptest.NewRequest(http.MethodGet, "/watchlist/u1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("list code %d", w.Code)
	}
	var items []Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].MovieID != "tt1" {
		t.Fatalf("unexpected items: %+v", items)
	}

	req = httptest.NewRequest(http.MethodDelete, "/watchlist/u1/tt1", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("remove code %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/watchlist/u1/tt1", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second remove code %d, want 404", w.Code)
	}
}
