package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adithyakrishnapn/moviereview/internal/auth"
)

// memStore is an in-memory credential store that mimics the unique-email
// constraint of the real table.
type memStore struct {
	byID    map[string]User
	byEmail map[string]string
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]User{}, byEmail: map[string]string{}}
}

func (m *memStore) Create(ctx context.Context, u User) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return ErrDuplicateEmail
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.byID[id], nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memStore) Update(ctx context.Context, id, username, email, picture string) (User, error) {
	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if other, exists := m.byEmail[email]; exists && other != id {
		return User{}, ErrDuplicateEmail
	}
	delete(m.byEmail, u.Email)
	u.Username = username
	u.Email = email
	if picture != "" {
		u.Picture = picture
	}
	m.byID[id] = u
	m.byEmail[email] = id
	return u, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, auth.NewIssuer("test-secret")), store
}

func TestSignup_HashesPassword(t *testing.T) {
	t.Parallel()

	svc, store := newTestService()
	u, err := svc.Signup(context.Background(), "alice", "a@x.com", "pw123", "")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEmpty(t, u.PasswordHash)
	require.NotEqual(t, "pw123", u.PasswordHash)

	stored, err := store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw123")))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, store := newTestService()
	_, err := svc.Signup(context.Background(), "alice", "a@x.com", "pw123", "")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "impostor", "A@X.com", "other", "")
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.Len(t, store.byID, 1)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	created, err := svc.Signup(context.Background(), "alice", "a@x.com", "pw123", "")
	require.NoError(t, err)

	u, token, err := svc.Login(context.Background(), "a@x.com", "pw123")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)
	require.NotEmpty(t, token)
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()
	_, err := svc.Signup(context.Background(), "alice", "a@x.com", "pw123", "")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@x.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	// same error as a wrong password: account existence must not leak
	_, _, err := svc.Login(context.Background(), "ghost@x.com", "pw123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
