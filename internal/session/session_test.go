package session

import (
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(Options{Path: path, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	return s
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_SaveAndRestore(t *testing.T) {
	dir := t.TempDir()
	user := domain.User{ID: "7", Username: "ada", Email: "ada@example.com"}

	s := newTestStore(t, dir)
	require.NoError(t, s.Save("opaque-token", user))
	assert.True(t, s.Authenticated())
	require.NoError(t, s.Close())

	reopened := newTestStore(t, dir)
	defer reopened.Close()

	assert.Equal(t, "opaque-token", reopened.Token())
	assert.Equal(t, domain.ID("7"), reopened.UserID())
	assert.Equal(t, "ada", reopened.User().Username)
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	require.NoError(t, s.Save("tok", domain.User{ID: "1"}))
	require.NoError(t, s.Clear())

	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.False(t, s.Authenticated())
	require.NoError(t, s.Close())

	reopened := newTestStore(t, dir)
	defer reopened.Close()
	assert.Empty(t, reopened.Token())
}

func TestStore_ClearWhenEmpty(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Clear())
}

func TestStore_UserIsACopy(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save("tok", domain.User{ID: "1", Username: "ada"}))
	u := s.User()
	u.Username = "mallory"

	assert.Equal(t, "ada", s.User().Username)
}

func TestStore_ExpiredJWTIsNotSent(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token := signedToken(t, now.Add(time.Hour))
	require.NoError(t, s.Save(token, domain.User{ID: "7"}))
	assert.Equal(t, token, s.Token())

	exp, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())

	now = now.Add(2 * time.Hour)
	assert.Empty(t, s.Token())
	assert.False(t, s.Authenticated())
}

func TestStore_Leeway(t *testing.T) {
	s, err := Open(Options{InMemory: true, Leeway: time.Minute})
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token := signedToken(t, now.Add(-30*time.Second))
	require.NoError(t, s.Save(token, domain.User{ID: "7"}))
	assert.Equal(t, token, s.Token())
}

func TestStore_OpaqueTokenNeverExpires(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save("not-a-jwt", domain.User{ID: "7"}))
	_, ok := s.ExpiresAt()
	assert.False(t, ok)
	assert.Equal(t, "not-a-jwt", s.Token())
}

func TestStore_SetToken(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save("first", domain.User{ID: "7"}))
	require.NoError(t, s.SetToken("second"))

	assert.Equal(t, "second", s.Token())
	assert.Equal(t, domain.ID("7"), s.UserID())
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Save("", domain.User{ID: "7"}))
}
