package watchlist

import "time"

type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	MovieID   string    `json:"movie"`
	MovieName string    `json:"movieName,omitempty"`
	Poster    string    `json:"poster,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}
