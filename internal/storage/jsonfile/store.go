// Package jsonfile provides a file-backed user store. All records live in a
// single JSON document; every write replaces the document atomically via a
// temp file and rename.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lzhoang/userbase-be/internal/models"
	"github.com/lzhoang/userbase-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store persists users in a JSON file. Mutations are serialized under a single
// lock so the read-modify-write cycle (including the duplicate-email scan) is
// one logical transaction; reads see the last committed file contents.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New returns a store backed by the file at path. The file and its directory
// are created lazily on first write; a missing or empty file reads as zero
// records.
func New(path string) *Store {
	return &Store{path: path}
}

// readAll loads the current snapshot. A missing or empty file is an empty
// collection; an unreadable or unparsable file is ErrUnavailable, never
// silently zero records.
func (s *Store) readAll() ([]models.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", storage.ErrUnavailable, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", storage.ErrUnavailable, s.path, err)
	}
	return users, nil
}

// writeAll replaces the whole collection. The document is written to a temp
// file in the same directory and renamed over the target so readers never see
// a partial write.
func (s *Store) writeAll(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", storage.ErrUnavailable, dir, err)
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode users: %v", storage.ErrUnavailable, err)
	}
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", storage.ErrUnavailable, err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write temp file: %v", storage.ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close temp file: %v", storage.ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: replace %s: %v", storage.ErrUnavailable, s.path, err)
	}
	return nil
}

// CreateUser appends a new record. The email uniqueness scan runs inside the
// same critical section as the write, so two concurrent creates with the same
// email cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return models.User{}, err
	}
	for _, existing := range users {
		if existing.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	users = append(users, user)
	if err := s.writeAll(users); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindByID fetches a record by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.readAll()
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// FindByEmail fetches a record by email. The match is case-sensitive, exactly
// as stored.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.readAll()
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

// ListUsers returns the full current snapshot.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readAll()
}

// UpdateUser merges the non-blank fields of update into the stored record and
// refreshes its updatedAt stamp.
func (s *Store) UpdateUser(ctx context.Context, id string, update storage.UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return models.User{}, err
	}
	for i := range users {
		if users[i].ID != id {
			continue
		}
		if update.Name != "" {
			users[i].Name = update.Name
		}
		if update.Email != "" {
			users[i].Email = update.Email
		}
		if update.Role != "" {
			users[i].Role = update.Role
		}
		if update.PasswordHash != "" {
			users[i].PasswordHash = update.PasswordHash
		}
		users[i].UpdatedAt = time.Now().UTC()
		if err := s.writeAll(users); err != nil {
			return models.User{}, err
		}
		return users[i], nil
	}
	return models.User{}, storage.ErrNotFound
}

// DeleteUser removes a record by id.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, user := range users {
		if user.ID != id {
			kept = append(kept, user)
		}
	}
	if len(kept) == len(users) {
		return storage.ErrNotFound
	}
	return s.writeAll(kept)
}
