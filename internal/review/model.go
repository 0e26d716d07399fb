package review

import "time"

type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	UserName    string    `json:"userName"`
	UserPicture string    `json:"picture,omitempty"`
	MovieID     string    `json:"movie"`
	MovieName   string    `json:"movieName"`
	MovieImage  string    `json:"movieImage,omitempty"`
	Rating      int       `json:"rating"`
	Title       string    `json:"reviewTitle"`
	Text        string    `json:"reviewText,omitempty"`
	CreatedAt   time.Time `json:"timestamp"`
}

// Input is the client-supplied part of a review. Identity fields come from
// the verified session claims, never from the body.
type Input struct {
	MovieID    string `json:"movie"`
	MovieName  string `json:"movieName"`
	MovieImage string `json:"movieImage"`
	Rating     int    `json:"rating"`
	Title      string `json:"reviewTitle"`
	Text       string `json:"reviewText"`
}
