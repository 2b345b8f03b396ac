// Package session persists the signed-in user's token and profile in a
// local Badger database, so a restarted client resumes where it left off.
package session

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

var (
	keyToken = []byte("session:token")
	keyUser  = []byte("session:user")
)

// Options configures a Store.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
	// Leeway tolerates clock skew when checking token expiry.
	Leeway time.Duration
}

// Store holds the current session. Reads are served from memory; writes go
// through to Badger before the in-memory copy changes.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	leeway time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *domain.User
}

// Open opens (or creates) the session database and restores any saved session.
// A token without a user, or a user record that cannot be decoded, is
// discarded.
func Open(opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil
	bopts.SyncWrites = !opts.InMemory

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: opts.Logger,
		leeway: opts.Leeway,
		now:    time.Now,
	}

	if err := s.restore(); err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		if clearErr := s.Clear(); clearErr != nil {
			_ = db.Close()
			return nil, clearErr
		}
	}

	return s, nil
}

// Close closes the session database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Token returns the bearer token, or "" when signed out or the token has
// expired. It satisfies gateway.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" || s.expired(token) {
		return ""
	}
	return token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's ID, or "" when signed out.
func (s *Store) UserID() domain.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Authenticated reports whether a usable token and user are present.
func (s *Store) Authenticated() bool {
	return s.Token() != "" && s.UserID() != ""
}

// Save persists a new session.
func (s *Store) Save(token string, user domain.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyToken, []byte(token)); err != nil {
			return err
		}
		return txn.Set(keyUser, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	s.logger.Debug("session saved", "user_id", user.ID)
	return nil
}

// SetToken replaces the token and keeps the current user.
func (s *Store) SetToken(token string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyToken, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear removes the session from disk and memory.
func (s *Store) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyToken); err != nil {
			return err
		}
		return txn.Delete(keyUser)
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	return nil
}

// ExpiresAt returns the token's exp claim. ok is false for opaque tokens and
// tokens without an exp claim.
func (s *Store) ExpiresAt() (exp time.Time, ok bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	return expiresAt(token)
}

func (s *Store) restore() error {
	var token string
	var user *domain.User

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyToken)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		token = string(raw)

		item, err = txn.Get(keyUser)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var u domain.User
			if err := json.Unmarshal(val, &u); err != nil {
				return err
			}
			user = &u
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

func (s *Store) expired(token string) bool {
	exp, ok := expiresAt(token)
	if !ok {
		return false
	}
	return s.now().After(exp.Add(s.leeway))
}

// expiresAt reads the exp claim without verifying the signature.
func expiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
