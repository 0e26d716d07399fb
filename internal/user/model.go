package user

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Picture      string
	JoinDate     time.Time
}

// Public is the shape exposed over the API. The password hash never leaves
// the package.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Picture  string `json:"picture,omitempty"`
	JoinDate string `json:"joinDate,omitempty"`
}

func (u User) Public() Public {
	p := Public{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Picture:  u.Picture,
	}
	if !u.JoinDate.IsZero() {
		p.JoinDate = u.JoinDate.UTC().Format(time.RFC3339)
	}
	return p
}
