package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adithyakrishnapn/moviereview/internal/auth"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so a caller cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	store  Store
	issuer *auth.Issuer
}

func NewService(store Store, issuer *auth.Issuer) *Service {
	return &Service{store: store, issuer: issuer}
}

func (s *Service) Signup(ctx context.Context, username, email, password, picture string) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           id.String(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Picture:      picture,
		JoinDate:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}

	return u, nil
}

// Login verifies the password against the stored hash and mints a session
// token on success.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(u.ID, u.Username, u.Email)
	if err != nil {
		return User{}, "", err
	}

	return u, token, nil
}

func (s *Service) Find(ctx context.Context, id string) (User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id, username, email, picture string) (User, error) {
	return s.store.Update(ctx, id, username, strings.ToLower(email), picture)
}
